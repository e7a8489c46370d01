package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cfb-picks/logging"
	"cfb-picks/models"
)

// DefaultESPNBaseURL is the college football scoreboard endpoint
const DefaultESPNBaseURL = "https://site.api.espn.com/apis/site/v2/sports/football/college-football/scoreboard"

// fbsGroup restricts the scoreboard to FBS games
const fbsGroup = "80"

// ESPNService reads game schedules and outcomes from the ESPN scoreboard API
type ESPNService struct {
	client  *http.Client
	baseURL string
	season  int
	logger  *logging.Logger
}

// NewESPNService creates a new ESPN service for one season
func NewESPNService(baseURL string, season int, timeout time.Duration) *ESPNService {
	if baseURL == "" {
		baseURL = DefaultESPNBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ESPNService{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		season:  season,
		logger:  logging.WithPrefix("ESPN"),
	}
}

// ESPN API response structures
type ESPNResponse struct {
	Events []ESPNEvent `json:"events"`
}

type ESPNEvent struct {
	ID           string            `json:"id"`
	Date         string            `json:"date"`
	Week         ESPNWeek          `json:"week"`
	Season       ESPNSeason        `json:"season"`
	Status       ESPNStatus        `json:"status"`
	Competitions []ESPNCompetition `json:"competitions"`
}

type ESPNSeason struct {
	Year int `json:"year"`
	Type int `json:"type"`
}

type ESPNWeek struct {
	Number int `json:"number"`
}

type ESPNStatus struct {
	Type ESPNStatusType `json:"type"`
}

type ESPNStatusType struct {
	Name      string `json:"name"`
	State     string `json:"state"`
	Completed bool   `json:"completed"`
}

type ESPNCompetition struct {
	Competitors []ESPNCompetitor `json:"competitors"`
}

type ESPNCompetitor struct {
	HomeAway string   `json:"homeAway"`
	Winner   bool     `json:"winner"`
	Score    string   `json:"score"`
	Team     ESPNTeam `json:"team"`
}

type ESPNTeam struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Location    string `json:"location"`
}

// ListGames fetches every FBS game of the configured season
func (e *ESPNService) ListGames(ctx context.Context) ([]models.GameResult, error) {
	url := fmt.Sprintf("%s?dates=%d0801-%d0131&groups=%s&limit=1000", e.baseURL, e.season, e.season+1, fbsGroup)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ESPN request: %w", err)
	}

	e.logger.Debugf("Fetching scoreboard from %s", url)
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ESPN data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ESPN API returned status %d", resp.StatusCode)
	}

	var espnResp ESPNResponse
	if err := json.NewDecoder(resp.Body).Decode(&espnResp); err != nil {
		return nil, fmt.Errorf("failed to decode ESPN response: %w", err)
	}

	results := e.convertEvents(espnResp.Events)
	e.logger.Debugf("Received %d events, converted %d games", len(espnResp.Events), len(results))
	return results, nil
}

// ListFinalizedGames returns only games whose outcome is settled
func (e *ESPNService) ListFinalizedGames(ctx context.Context) ([]models.GameResult, error) {
	games, err := e.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	finalized := make([]models.GameResult, 0, len(games))
	for _, g := range games {
		if g.Final() {
			finalized = append(finalized, g)
		}
	}
	return finalized, nil
}

// HealthCheck verifies the ESPN API is reachable
func (e *ESPNService) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, e.baseURL, nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

func (e *ESPNService) convertEvents(events []ESPNEvent) []models.GameResult {
	results := make([]models.GameResult, 0, len(events))
	for _, event := range events {
		// regular season and bowls only
		if event.Season.Type != 2 && event.Season.Type != 3 {
			continue
		}
		if len(event.Competitions) == 0 || len(event.Competitions[0].Competitors) < 2 {
			e.logger.Warnf("Skipping event %s without two competitors", event.ID)
			continue
		}
		results = append(results, e.convertEvent(event))
	}
	return results
}

func (e *ESPNService) convertEvent(event ESPNEvent) models.GameResult {
	result := models.GameResult{
		GameID: event.ID,
		Season: event.Season.Year,
		Week:   event.Week.Number,
		Date:   parseESPNDate(event.Date),
		State:  convertGameState(event.Status.Type),
	}

	var homeWinner, awayWinner bool
	for _, c := range event.Competitions[0].Competitors {
		score, _ := strconv.Atoi(c.Score)
		switch c.HomeAway {
		case "home":
			result.Home = teamName(c.Team)
			result.HomeScore = score
			homeWinner = c.Winner
		case "away":
			result.Away = teamName(c.Team)
			result.AwayScore = score
			awayWinner = c.Winner
		}
	}

	// a forfeit with a declared winner counts as that side's win
	if isForfeit(event.Status.Type) && homeWinner != awayWinner {
		result.State = models.GameStateFinal
	}
	if result.State == models.GameStateFinal {
		result.WinningSide = winningSide(homeWinner, awayWinner, result.HomeScore, result.AwayScore)
	}
	return result
}

func isForfeit(status ESPNStatusType) bool {
	return strings.EqualFold(status.Name, "STATUS_FORFEIT")
}

// winningSide prefers ESPN's winner flags and falls back to the final score.
// A tie yields nil.
func winningSide(homeWinner, awayWinner bool, homeScore, awayScore int) *models.Side {
	switch {
	case homeWinner && !awayWinner:
		return models.SidePtr(models.SideHome)
	case awayWinner && !homeWinner:
		return models.SidePtr(models.SideAway)
	case homeScore > awayScore:
		return models.SidePtr(models.SideHome)
	case awayScore > homeScore:
		return models.SidePtr(models.SideAway)
	default:
		return nil
	}
}

func convertGameState(status ESPNStatusType) models.GameState {
	switch strings.ToUpper(status.Name) {
	case "STATUS_CANCELED", "STATUS_CANCELLED", "STATUS_FORFEIT":
		return models.GameStateCanceled
	case "STATUS_POSTPONED", "STATUS_DELAYED":
		return models.GameStatePostponed
	}
	if status.Completed {
		return models.GameStateFinal
	}
	switch strings.ToLower(status.State) {
	case "in":
		return models.GameStateInProgress
	case "post":
		return models.GameStateFinal
	default:
		return models.GameStateScheduled
	}
}

func teamName(t ESPNTeam) string {
	if t.Location != "" {
		return t.Location
	}
	return t.DisplayName
}

// parseESPNDate handles "2024-09-08T00:20Z" and the variant with seconds
func parseESPNDate(value string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04Z", "2006-01-02T15:04:05Z", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
