package config

import (
	"fmt"
	"os"
	"strings"

	"budgetweek/internal/core"

	"github.com/BurntSushi/toml"
)

// SettingsFile is the TOML layout of the dashboard settings seed.
type SettingsFile struct {
	StartingBalance   float64          `toml:"starting_balance"`
	StandardDailyGoal *float64         `toml:"standard_daily_goal,omitempty"`
	WorkDays          []string         `toml:"work_days,omitempty"`
	Categories        []CategoryConfig `toml:"categories,omitempty"`
}

// CategoryConfig is one [[categories]] table.
type CategoryConfig struct {
	Name     string  `toml:"name"`
	Budgeted float64 `toml:"budgeted"`
	Color    string  `toml:"color,omitempty"`
}

// LoadSettings reads the settings seed at path. An empty path yields the
// defaults.
func LoadSettings(path string) (core.Settings, error) {
	if path == "" {
		return core.DefaultSettings(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return core.Settings{}, fmt.Errorf("reading settings: %w", err)
	}

	var f SettingsFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return core.Settings{}, fmt.Errorf("parsing settings: %w", err)
	}
	return f.toSettings()
}

func (f SettingsFile) toSettings() (core.Settings, error) {
	s := core.DefaultSettings()
	s.StartingBalance = core.NewMoney(f.StartingBalance)
	if f.StandardDailyGoal != nil {
		if *f.StandardDailyGoal <= 0 {
			return core.Settings{}, fmt.Errorf("standard_daily_goal: %w", core.ErrInvalidAmount)
		}
		s.StandardDailyGoal = core.NewMoney(*f.StandardDailyGoal)
	}

	if f.WorkDays != nil {
		s.WorkDays = make(map[string]bool, len(core.WeekdayNames))
		for _, name := range core.WeekdayNames {
			s.WorkDays[name] = false
		}
		for _, d := range f.WorkDays {
			name, ok := canonicalDay(d)
			if !ok {
				return core.Settings{}, fmt.Errorf("work_days: unknown day %q", d)
			}
			s.WorkDays[name] = true
		}
	}

	for _, c := range f.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return core.Settings{}, fmt.Errorf("categories: %w", core.ErrEmptyCategory)
		}
		if c.Budgeted < 0 {
			return core.Settings{}, fmt.Errorf("category %s: %w", c.Name, core.ErrInvalidAmount)
		}
		s.Categories = append(s.Categories, core.BudgetCategory{
			Name:     strings.TrimSpace(c.Name),
			Budgeted: core.NewMoney(c.Budgeted),
			Color:    c.Color,
		})
	}
	return s, nil
}

// SaveSettings writes s to path as TOML.
func SaveSettings(path string, s core.Settings) error {
	goal := s.StandardDailyGoal.Float()
	f := SettingsFile{
		StartingBalance:   s.StartingBalance.Float(),
		StandardDailyGoal: &goal,
	}
	if s.WorkDays != nil {
		f.WorkDays = []string{}
		for _, name := range core.WeekdayNames {
			if s.WorkDayFor(name) {
				f.WorkDays = append(f.WorkDays, name)
			}
		}
	}
	for _, c := range s.Categories {
		f.Categories = append(f.Categories, CategoryConfig{Name: c.Name, Budgeted: c.Budgeted.Float(), Color: c.Color})
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating settings file: %w", err)
	}
	defer out.Close()

	return toml.NewEncoder(out).Encode(f)
}

// canonicalDay maps "monday", "Mon" or "MON" to the ledger's short name.
func canonicalDay(d string) (string, bool) {
	d = strings.ToLower(strings.TrimSpace(d))
	if len(d) < 3 {
		return "", false
	}
	for _, name := range core.WeekdayNames {
		if strings.HasPrefix(d, strings.ToLower(name)) {
			return name, true
		}
	}
	return "", false
}
