package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Score holds a user's cumulative pick counters. AppliedPicks is the ledger
// of pick ids already counted and is never exposed over the API.
type Score struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	UserID         primitive.ObjectID   `json:"userId" bson:"user_id"`
	CorrectPicks   int                  `json:"correctPicks" bson:"correct_picks"`
	IncorrectPicks int                  `json:"incorrectPicks" bson:"incorrect_picks"`
	TotalPicks     int                  `json:"totalPicks" bson:"total_picks"`
	AppliedPicks   []primitive.ObjectID `json:"-" bson:"applied_picks"`
	CreatedAt      time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time            `json:"updatedAt" bson:"updated_at"`
}

// Balanced reports whether total = correct + incorrect
func (s *Score) Balanced() bool {
	return s.TotalPicks == s.CorrectPicks+s.IncorrectPicks
}

// ScoreDelta is the increment applied for one graded pick
type ScoreDelta struct {
	Correct   int
	Incorrect int
	Total     int
}

// DeltaFor returns the increment for a graded pick
func DeltaFor(outcome PickOutcome) ScoreDelta {
	if outcome == PickOutcomeCorrect {
		return ScoreDelta{Correct: 1, Total: 1}
	}
	return ScoreDelta{Incorrect: 1, Total: 1}
}

// LeaderboardEntry is one ranked row of the leaderboard
type LeaderboardEntry struct {
	Rank           int    `json:"rank" bson:"-"`
	FirstName      string `json:"firstName" bson:"first_name"`
	LastName       string `json:"lastName" bson:"last_name"`
	Username       string `json:"username" bson:"username"`
	CorrectPicks   int    `json:"correctPicks" bson:"correct_picks"`
	IncorrectPicks int    `json:"incorrectPicks" bson:"incorrect_picks"`
	TotalPicks     int    `json:"totalPicks" bson:"total_picks"`
}

// RankEntries assigns 1-based ranks by position. Entries must already be
// sorted by CorrectPicks descending.
func RankEntries(entries []LeaderboardEntry) []LeaderboardEntry {
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
