package domain

import "time"

// Activity event types.
const (
	ActivityNewUser   = "new_user"
	ActivityGameStart = "game_start"
	ActivityGameEnd   = "game_end"
	ActivityPayment   = "payment"
	ActivityReferral  = "referral"
)

// ActivityLogCap bounds the ring of recent events.
const ActivityLogCap = 200

// ActivityEvent is one row of the recent-activity feed, newest first.
type ActivityEvent struct {
	Type      string    `json:"type"`
	PlayerID  string    `json:"player_id"`
	Name      string    `json:"name,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats are the global aggregate counters shown on the dashboard and
// the /stats bot command.
type Stats struct {
	TotalPlayers  int64 `json:"total_players"`
	OnlineNow     int64 `json:"online_now"`
	GamesStarted  int64 `json:"games_started"`
	GamesFinished int64 `json:"games_finished"`
	PaymentCount  int64 `json:"payment_count"`
	TotalRevenue  int64 `json:"total_revenue"`
}
