package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"saneamento-dashboard/model"
)

const (
	appName         = "saneamento-dashboard"
	maxRecentStates = 8
)

// Preferences are the dashboard selections restored on the next start.
type Preferences struct {
	Theme     string    `json:"theme,omitempty"`
	State     string    `json:"state,omitempty"`
	Disease   string    `json:"disease,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RecentState struct {
	GeoID string `json:"geo_id"`
	Name  string `json:"name"`
}

type stateHistory struct {
	States []RecentState `json:"states"`
}

// LoadPreferences returns the zero Preferences when nothing was saved yet.
func LoadPreferences() (Preferences, error) {
	path, err := configPath("preferences.json")
	if err != nil {
		return Preferences{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Preferences{}, nil
		}
		return Preferences{}, err
	}

	var prefs Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return Preferences{}, errors.New("invalid preferences format")
	}
	return prefs, nil
}

func SavePreferences(prefs Preferences) error {
	path, err := configPath("preferences.json")
	if err != nil {
		return err
	}
	prefs.UpdatedAt = time.Now()
	return writeJSON(path, prefs)
}

func LoadRecentStates() ([]RecentState, error) {
	path, err := configPath("history.json")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var history stateHistory
	if err := json.Unmarshal(data, &history); err == nil {
		return history.States, nil
	}

	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		var states []RecentState
		for _, name := range names {
			if name != "" {
				states = append(states, RecentState{Name: name})
			}
		}
		return states, nil
	}

	return nil, errors.New("invalid state history format")
}

// RememberState moves feature to the front of the history, keeping at most
// eight entries.
func RememberState(feature model.GeoFeature) error {
	history, _ := LoadRecentStates()
	next := []RecentState{{GeoID: feature.ID, Name: feature.Name}}

	for _, existing := range history {
		if existing.GeoID == feature.ID && existing.GeoID != "" {
			continue
		}
		if stringsEqualFold(existing.Name, feature.Name) {
			continue
		}
		next = append(next, existing)
		if len(next) >= maxRecentStates {
			break
		}
	}

	path, err := configPath("history.json")
	if err != nil {
		return err
	}
	return writeJSON(path, stateHistory{States: next})
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func configPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, name), nil
}

func stringsEqualFold(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
