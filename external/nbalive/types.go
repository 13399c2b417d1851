package nbalive

// Payload shapes for the live-stats CDN. Only the fields the pipeline reads
// are declared; sonic drops the rest.

type boxscoreEnvelope struct {
	Game *Game `json:"game"`
}

type scoreboardEnvelope struct {
	Scoreboard struct {
		GameDate string `json:"gameDate"`
		Games    []Game `json:"games"`
	} `json:"scoreboard"`
}

type Game struct {
	GameID         string `json:"gameId"`
	GameCode       string `json:"gameCode"`
	GameStatus     int    `json:"gameStatus"`
	GameStatusText string `json:"gameStatusText"`
	GameTimeUTC    string `json:"gameTimeUTC"`
	Duration       string `json:"duration"`
	Attendance     int    `json:"attendance"`
	Arena          Arena  `json:"arena"`
	HomeTeam       Team   `json:"homeTeam"`
	AwayTeam       Team   `json:"awayTeam"`
}

type Arena struct {
	ArenaName string `json:"arenaName"`
}

type Team struct {
	TeamID      int64    `json:"teamId"`
	TeamTricode string   `json:"teamTricode"`
	Score       int      `json:"score"`
	Players     []Player `json:"players"`
}

type Player struct {
	PersonID   int64      `json:"personId"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	Starter    string     `json:"starter"`
	Position   string     `json:"position"`
	JerseyNum  string     `json:"jerseyNum"`
	Statistics Statistics `json:"statistics"`
}

type Statistics struct {
	Minutes                 string  `json:"minutes"`
	Points                  int     `json:"points"`
	ReboundsTotal           int     `json:"reboundsTotal"`
	Assists                 int     `json:"assists"`
	Steals                  int     `json:"steals"`
	Blocks                  int     `json:"blocks"`
	Turnovers               int     `json:"turnovers"`
	FieldGoalsMade          int     `json:"fieldGoalsMade"`
	FieldGoalsAttempted     int     `json:"fieldGoalsAttempted"`
	FieldGoalsPercentage    float64 `json:"fieldGoalsPercentage"`
	ThreePointersMade       int     `json:"threePointersMade"`
	ThreePointersAttempted  int     `json:"threePointersAttempted"`
	ThreePointersPercentage float64 `json:"threePointersPercentage"`
	FreeThrowsMade          int     `json:"freeThrowsMade"`
	FreeThrowsAttempted     int     `json:"freeThrowsAttempted"`
	FreeThrowsPercentage    float64 `json:"freeThrowsPercentage"`
	ReboundsOffensive       int     `json:"reboundsOffensive"`
	ReboundsDefensive       int     `json:"reboundsDefensive"`
	FoulsPersonal           int     `json:"foulsPersonal"`
	PlusMinusPoints         float64 `json:"plusMinusPoints"`
}
