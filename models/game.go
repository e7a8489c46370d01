package models

import (
	"fmt"
	"time"
)

// Side identifies one team of a game from the picker's point of view
type Side string

const (
	SideHome Side = "homeTeam"
	SideAway Side = "awayTeam"
)

// Valid reports whether s is one of the two pickable sides
func (s Side) Valid() bool {
	return s == SideHome || s == SideAway
}

// ParseSide converts a submitted value to a Side
func ParseSide(value string) (Side, error) {
	side := Side(value)
	if !side.Valid() {
		return "", fmt.Errorf("invalid pick %q: must be %q or %q", value, SideHome, SideAway)
	}
	return side, nil
}

// GameState represents the current state of a game
type GameState string

const (
	GameStateScheduled  GameState = "scheduled"
	GameStateInProgress GameState = "in_progress"
	GameStateFinal      GameState = "final"
	GameStateCanceled   GameState = "canceled"
	GameStatePostponed  GameState = "postponed"
)

// IsFinalized reports whether a game in this state will not change outcome.
// Canceled games are finalized with no winner.
func (s GameState) IsFinalized() bool {
	return s == GameStateFinal || s == GameStateCanceled
}

// Game is the locally tracked copy of an externally owned game. Scored and
// ScoredAt are the only fields this system owns.
type Game struct {
	ID          string     `json:"id" bson:"id"`
	Season      int        `json:"season" bson:"season"`
	Week        int        `json:"week" bson:"week"`
	Date        time.Time  `json:"date" bson:"date"`
	Home        string     `json:"homeTeam" bson:"home"`
	Away        string     `json:"awayTeam" bson:"away"`
	HomeScore   int        `json:"homeScore" bson:"home_score"`
	AwayScore   int        `json:"awayScore" bson:"away_score"`
	State       GameState  `json:"state" bson:"state"`
	Final       bool       `json:"final" bson:"final"`
	WinningSide *Side      `json:"winningSide" bson:"winning_side"`
	Scored      bool       `json:"scored" bson:"scored"`
	ScoredAt    *time.Time `json:"scoredAt,omitempty" bson:"scored_at,omitempty"`
}

// HasWinner reports whether the game produced a winner picks can be graded against
func (g *Game) HasWinner() bool {
	return g.Final && g.WinningSide != nil && g.WinningSide.Valid()
}

// Matchup returns "Away @ Home"
func (g *Game) Matchup() string {
	return fmt.Sprintf("%s @ %s", g.Away, g.Home)
}

// GameResult is one game as reported by the results source
type GameResult struct {
	GameID      string    `json:"gameId"`
	Season      int       `json:"season"`
	Week        int       `json:"week"`
	Date        time.Time `json:"date"`
	Home        string    `json:"homeTeam"`
	Away        string    `json:"awayTeam"`
	HomeScore   int       `json:"homeScore"`
	AwayScore   int       `json:"awayScore"`
	State       GameState `json:"state"`
	WinningSide *Side     `json:"winningSide"`
}

// Final reports whether the source considers the outcome settled
func (r *GameResult) Final() bool {
	return r.State.IsFinalized()
}

// Validate rejects records the reconciler cannot safely store
func (r *GameResult) Validate() error {
	if r.GameID == "" {
		return fmt.Errorf("game result has no id")
	}
	if r.WinningSide != nil && !r.WinningSide.Valid() {
		return fmt.Errorf("game %s has invalid winning side %q", r.GameID, *r.WinningSide)
	}
	if r.WinningSide != nil && !r.Final() {
		return fmt.Errorf("game %s has a winner but state %q", r.GameID, r.State)
	}
	return nil
}

// ToGame converts a source record to the stored representation (unscored)
func (r *GameResult) ToGame() Game {
	return Game{
		ID:          r.GameID,
		Season:      r.Season,
		Week:        r.Week,
		Date:        r.Date,
		Home:        r.Home,
		Away:        r.Away,
		HomeScore:   r.HomeScore,
		AwayScore:   r.AwayScore,
		State:       r.State,
		Final:       r.Final(),
		WinningSide: r.WinningSide,
	}
}

// SidePtr is a helper for building results with a declared winner
func SidePtr(s Side) *Side {
	return &s
}
