package models

import "encoding/json"

type WeightEntry struct {
	Weight float64 `json:"weight"`
	Date   string  `json:"date"`
}

// ClientProfile is the backend's Client record as the dashboard sees it.
// Numeric fields use 0 for "not set", which is how the backend serializes them.
type ClientProfile struct {
	Name                  string        `json:"name"`
	ClientName            string        `json:"client_name"`
	DateOfBirth           string        `json:"date_of_birth"`
	Gender                string        `json:"gender"`
	Mobile                string        `json:"mobile"`
	Email                 string        `json:"email"`
	Nationality           string        `json:"nationality"`
	Goal                  string        `json:"goal"`
	TargetWeight          float64       `json:"target_weight"`
	Meals                 int           `json:"meals"`
	Workouts              int           `json:"workouts"`
	Equipment             string        `json:"equipment"`
	ActivityLevel         string        `json:"activity_level"`
	Height                float64       `json:"height"`
	RequestWeight         int           `json:"request_weight"`
	AllowPreferenceUpdate int           `json:"allow_preference_update"`
	Weight                []WeightEntry `json:"weight"`
	CurrentWeight         float64       `json:"current_weight"`
}

// LatestWeight returns the client's current weight, falling back to the most
// recent history entry. ok is false when neither is recorded.
func (c *ClientProfile) LatestWeight() (float64, bool) {
	if c == nil {
		return 0, false
	}
	if c.CurrentWeight > 0 {
		return c.CurrentWeight, true
	}
	for i := len(c.Weight) - 1; i >= 0; i-- {
		if c.Weight[i].Weight > 0 {
			return c.Weight[i].Weight, true
		}
	}
	return 0, false
}

func (c *ClientProfile) WeightUpdateRequested() bool {
	return c != nil && c.RequestWeight == 1
}

func (c *ClientProfile) PreferencesUnlocked() bool {
	return c != nil && c.AllowPreferenceUpdate == 1
}

type Membership struct {
	Name    string `json:"name"`
	Package string `json:"package"`
	Client  string `json:"client"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Active  int    `json:"active"`
}

// MembershipSnapshot is the payload of get_membership. Plans and references are
// passed through to the dashboard untouched.
type MembershipSnapshot struct {
	Membership Membership      `json:"membership"`
	Client     ClientProfile   `json:"client"`
	Plans      json.RawMessage `json:"plans,omitempty"`
	References json.RawMessage `json:"references,omitempty"`
}
