package game

import (
	"context"
	"time"
)

// firstGamesTracked is how many opening games keep their individual score.
const firstGamesTracked = 5

// User is the per-device player profile.
type User struct {
	Username            string      `json:"username"`
	Scores              map[int]int `json:"scores"` // tier -> games finished with that tier
	FirstGameDate       time.Time   `json:"firstGameDate"`
	FirstFiveGameScores []int       `json:"firstFiveGameScores"`
}

// NewUser returns an empty profile.
func NewUser(username string) *User {
	return &User{Username: username, Scores: map[int]int{}}
}

// GamesPlayed is the total of all tier counters.
func (u *User) GamesPlayed() int {
	n := 0
	for _, c := range u.Scores {
		n += c
	}
	return n
}

// Record books a finished game (won or lost) with the given tier.
func (u *User) Record(tier int, now time.Time) {
	if u.Scores == nil {
		u.Scores = map[int]int{}
	}
	if u.FirstGameDate.IsZero() {
		u.FirstGameDate = now.UTC()
	}
	u.Scores[tier]++
	if u.GamesPlayed() <= firstGamesTracked {
		u.FirstFiveGameScores = append(u.FirstFiveGameScores, tier)
	}
}

// Profiles persists User records keyed by device.
// Get returns (nil, nil) when nothing is stored for the device.
type Profiles interface {
	Get(ctx context.Context, deviceID string) (*User, error)
	Set(ctx context.Context, deviceID string, u *User) error
	Clear(ctx context.Context, deviceID string) error
}
