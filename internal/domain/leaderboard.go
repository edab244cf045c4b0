package domain

import "time"

// Board identifies one of the fixed leaderboards. Weekly buckets are
// addressed as WeeklyBoard(weekKey).
type Board string

const (
	BoardGlobal  Board = "global"
	BoardAllTime Board = "alltime"

	weeklyPrefix = "weekly:"
)

// WeeklyBoard returns the board for a given week key.
func WeeklyBoard(weekKey string) Board {
	return Board(weeklyPrefix + weekKey)
}

// IsWeekly reports whether b is a weekly bucket.
func (b Board) IsWeekly() bool {
	return len(b) > len(weeklyPrefix) && string(b[:len(weeklyPrefix)]) == weeklyPrefix
}

// WeekKey returns the week key of a weekly board, or "" for fixed boards.
func (b Board) WeekKey() string {
	if !b.IsWeekly() {
		return ""
	}
	return string(b[len(weeklyPrefix):])
}

// LeaderboardEntry is a single ranked row.
type LeaderboardEntry struct {
	Rank      int64     `json:"rank"`
	PlayerID  string    `json:"player_id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Score     int64     `json:"score"`
	VIP       bool      `json:"vip,omitempty"`
	NameColor string    `json:"name_color,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScoreSubmission is a request to record a score on the boards.
type ScoreSubmission struct {
	PlayerID  string    `json:"player_id"`
	Profile   Profile   `json:"profile"`
	Score     int64     `json:"score"`
	Cosmetics Cosmetics `json:"cosmetics"`
}

// RankInfo is the answer to a rank lookup. Rank is nil when the player
// is not on the board.
type RankInfo struct {
	PlayerID string `json:"player_id"`
	Rank     *int64 `json:"rank"`
	Score    int64  `json:"score"`
}

// WeekStatus describes the current weekly bucket for dashboards.
type WeekStatus struct {
	Key         string    `json:"key"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	NextReset   time.Time `json:"next_reset"`
	SecondsLeft int64     `json:"seconds_left"`
}
