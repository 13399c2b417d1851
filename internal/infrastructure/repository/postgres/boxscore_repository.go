package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/courtwire/nba-ingest/internal/domain/boxscore"
	qb "github.com/courtwire/nba-ingest/internal/platform/querybuilder"
)

type BoxscoreRepository struct {
	db    *sqlx.DB
	table string
}

func NewBoxscoreRepository(db *sqlx.DB, table string) *BoxscoreRepository {
	if table == "" {
		table = "player_boxscores"
	}
	return &BoxscoreRepository{db: db, table: table}
}

func (r *BoxscoreRepository) CountByDateRange(ctx context.Context, startDate, endDate string) (int, error) {
	query, args, err := qb.Select("COUNT(1) AS total").
		From(r.table).
		Where(qb.Expr("game_date BETWEEN ? AND ?", startDate, endDate)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count boxscores query: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("count boxscores: %w", err)
	}
	return total, nil
}

func (r *BoxscoreRepository) BulkInsert(ctx context.Context, lines []boxscore.PlayerLine) error {
	if len(lines) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert boxscores tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for start := 0; start < len(lines); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(lines) {
			end = len(lines)
		}

		builder := qb.InsertInto(r.table)
		for i, line := range lines[start:end] {
			cols, vals, err := qb.ModelColumnsAndValues(newPlayerLineInsertModel(line))
			if err != nil {
				return fmt.Errorf("map boxscore row: %w", err)
			}
			if i == 0 {
				builder.Columns(cols...)
			}
			builder.Values(vals...)
		}

		query, args, err := builder.ToSQL()
		if err != nil {
			return fmt.Errorf("build insert boxscores query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert boxscores: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert boxscores tx: %w", err)
	}
	return nil
}
