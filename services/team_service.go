package services

import (
	"sort"
	"strings"

	"cfb-picks/models"
)

// fbsConferences lists FBS programs by conference
var fbsConferences = map[string][]string{
	"ACC": {
		"Boston College", "California", "Clemson", "Duke", "Florida State", "Georgia Tech",
		"Louisville", "Miami", "NC State", "North Carolina", "Pittsburgh", "SMU",
		"Stanford", "Syracuse", "Virginia", "Virginia Tech", "Wake Forest",
	},
	"American": {
		"Army", "Charlotte", "East Carolina", "Florida Atlantic", "Memphis", "Navy",
		"North Texas", "Rice", "South Florida", "Temple", "Tulane", "Tulsa", "UAB", "UTSA",
	},
	"Big Ten": {
		"Illinois", "Indiana", "Iowa", "Maryland", "Michigan", "Michigan State",
		"Minnesota", "Nebraska", "Northwestern", "Ohio State", "Oregon", "Penn State",
		"Purdue", "Rutgers", "UCLA", "USC", "Washington", "Wisconsin",
	},
	"Big 12": {
		"Arizona", "Arizona State", "Baylor", "BYU", "Cincinnati", "Colorado", "Houston",
		"Iowa State", "Kansas", "Kansas State", "Oklahoma State", "TCU", "Texas Tech",
		"UCF", "Utah", "West Virginia",
	},
	"Conference USA": {
		"FIU", "Jacksonville State", "Kennesaw State", "Liberty", "Louisiana Tech",
		"Middle Tennessee", "New Mexico State", "Sam Houston", "UTEP", "Western Kentucky",
	},
	"Independent": {
		"Notre Dame", "UConn", "UMass",
	},
	"MAC": {
		"Akron", "Ball State", "Bowling Green", "Buffalo", "Central Michigan",
		"Eastern Michigan", "Kent State", "Miami (OH)", "Northern Illinois", "Ohio",
		"Toledo", "Western Michigan",
	},
	"Mountain West": {
		"Air Force", "Boise State", "Colorado State", "Fresno State", "Hawai'i", "Nevada",
		"New Mexico", "San Diego State", "San José State", "UNLV", "Utah State", "Wyoming",
	},
	"Pac-12": {
		"Oregon State", "Washington State",
	},
	"SEC": {
		"Alabama", "Arkansas", "Auburn", "Florida", "Georgia", "Kentucky", "LSU",
		"Mississippi State", "Missouri", "Oklahoma", "Ole Miss", "South Carolina",
		"Tennessee", "Texas", "Texas A&M", "Vanderbilt",
	},
	"Sun Belt": {
		"App State", "Arkansas State", "Coastal Carolina", "Georgia Southern",
		"Georgia State", "James Madison", "Louisiana", "Marshall", "Old Dominion",
		"South Alabama", "Southern Miss", "Texas State", "Troy", "UL Monroe",
	},
}

// TeamService answers questions about the FBS team list
type TeamService struct {
	teams  []models.Team
	byName map[string]models.Team
}

// NewTeamService builds the sorted team list once
func NewTeamService() *TeamService {
	s := &TeamService{byName: make(map[string]models.Team)}
	for conference, names := range fbsConferences {
		for _, name := range names {
			team := models.Team{Name: name, Conference: conference}
			s.teams = append(s.teams, team)
			s.byName[strings.ToLower(name)] = team
		}
	}
	sort.Slice(s.teams, func(i, j int) bool {
		return s.teams[i].Name < s.teams[j].Name
	})
	return s
}

// Teams returns every FBS team sorted by name
func (s *TeamService) Teams() []models.Team {
	out := make([]models.Team, len(s.teams))
	copy(out, s.teams)
	return out
}

// TeamNames returns the sorted team names
func (s *TeamService) TeamNames() []string {
	names := make([]string, len(s.teams))
	for i, t := range s.teams {
		names[i] = t.Name
	}
	return names
}

// Lookup finds a team by case-insensitive name
func (s *TeamService) Lookup(name string) (models.Team, bool) {
	team, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	return team, ok
}

// IsValidFavorite accepts a known team or no team at all
func (s *TeamService) IsValidFavorite(name string) bool {
	if strings.TrimSpace(name) == "" {
		return true
	}
	_, ok := s.Lookup(name)
	return ok
}
