package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pick represents a user's predicted winner for one game
type Pick struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"userId"`
	GameID         string             `bson:"game_id" json:"gameId"`
	Pick           Side               `bson:"pick" json:"pick"`
	AppliedToScore bool               `bson:"applied_to_score" json:"appliedToScore"`
	AppliedAt      *time.Time         `bson:"applied_at,omitempty" json:"appliedAt,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}

// PickOutcome is the graded result of a pick against a finished game
type PickOutcome string

const (
	PickOutcomeCorrect   PickOutcome = "correct"
	PickOutcomeIncorrect PickOutcome = "incorrect"
)

// Grade compares the pick to the winning side
func (p *Pick) Grade(winner Side) PickOutcome {
	if p.Pick == winner {
		return PickOutcomeCorrect
	}
	return PickOutcomeIncorrect
}

// Malformed reports whether the stored record cannot be graded
func (p *Pick) Malformed() bool {
	return p.ID.IsZero() || p.UserID.IsZero() || p.GameID == "" || !p.Pick.Valid()
}

// PickView is a pick enriched with its game for display
type PickView struct {
	Pick
	Matchup string `json:"matchup"`
	Status  string `json:"status"`
}

// NewPickView describes a pick against its game. Status is "pending" until
// the game is final, then "correct", "incorrect" or "no_contest".
func NewPickView(pick Pick, game *Game) PickView {
	view := PickView{Pick: pick, Status: "pending"}
	if game == nil {
		return view
	}
	view.Matchup = game.Matchup()
	switch {
	case !game.Final:
	case !game.HasWinner():
		view.Status = "no_contest"
	default:
		view.Status = string(pick.Grade(*game.WinningSide))
	}
	return view
}
