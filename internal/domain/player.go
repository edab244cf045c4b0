package domain

import "time"

// Player is the permanent record for a Telegram identity. It is created
// on the first heartbeat and only removed by an admin full reset.
type Player struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar,omitempty"`
	Username     string    `json:"username,omitempty"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	GamesPlayed  int64     `json:"games_played"`
	HighScore    int64     `json:"high_score"`
	TotalSpent   int64     `json:"total_spent"`
	StarsBalance int64     `json:"stars_balance"`
	VIP          bool      `json:"vip,omitempty"`
	NameColor    string    `json:"name_color,omitempty"`
}

// Profile carries the mutable display fields a client sends with a
// heartbeat or score submission.
type Profile struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Cosmetics are the purchasable display flags shown next to a player on
// the leaderboards.
type Cosmetics struct {
	VIP       bool   `json:"vip,omitempty"`
	NameColor string `json:"name_color,omitempty"`
}

// PresenceEntry is the transient online record refreshed by heartbeats.
type PresenceEntry struct {
	PlayerID string    `json:"player_id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
	LastSeen time.Time `json:"last_seen"`
	Score    int64     `json:"score"`
}

// PresenceTTL is how long a silent player is still considered online.
const PresenceTTL = 300 * time.Second
