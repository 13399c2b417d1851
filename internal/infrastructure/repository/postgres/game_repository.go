package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/courtwire/nba-ingest/internal/domain/game"
	qb "github.com/courtwire/nba-ingest/internal/platform/querybuilder"
)

// insertBatchSize caps rows per INSERT statement to keep the placeholder
// count well under the postgres wire limit.
const insertBatchSize = 500

type GameRepository struct {
	db    *sqlx.DB
	table string
}

func NewGameRepository(db *sqlx.DB, table string) *GameRepository {
	if table == "" {
		table = "games_daily"
	}
	return &GameRepository{db: db, table: table}
}

// CountByDateRange reports how many game rows already exist for the
// inclusive civil-date window. The ingest guard calls this before loading.
func (r *GameRepository) CountByDateRange(ctx context.Context, startDate, endDate string) (int, error) {
	query, args, err := qb.Select("COUNT(1) AS total").
		From(r.table).
		Where(qb.Expr("game_date BETWEEN ? AND ?", startDate, endDate)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count games query: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("count games: %w", err)
	}
	return total, nil
}

// BulkInsert appends game rows in one transaction. There is no conflict
// handling: loads are append-only and the guard owns idempotency.
func (r *GameRepository) BulkInsert(ctx context.Context, records []game.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert games tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for start := 0; start < len(records); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(records) {
			end = len(records)
		}

		builder := qb.InsertInto(r.table)
		for i, rec := range records[start:end] {
			cols, vals, err := qb.ModelColumnsAndValues(newGameInsertModel(rec))
			if err != nil {
				return fmt.Errorf("map game row: %w", err)
			}
			if i == 0 {
				builder.Columns(cols...)
			}
			builder.Values(vals...)
		}

		query, args, err := builder.ToSQL()
		if err != nil {
			return fmt.Errorf("build insert games query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert games: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert games tx: %w", err)
	}
	return nil
}
