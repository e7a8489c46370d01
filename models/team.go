package models

// Team represents an FBS program a user can choose as favorite
type Team struct {
	Name       string `json:"name"`
	Conference string `json:"conference"`
}

// String returns the team name
func (t Team) String() string {
	return t.Name
}
