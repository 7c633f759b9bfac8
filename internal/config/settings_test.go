package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"budgetweek/internal/core"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	return path
}

func TestLoadSettings(t *testing.T) {
	t.Run("empty path gives defaults", func(t *testing.T) {
		s, err := LoadSettings("")
		if err != nil {
			t.Fatalf("LoadSettings() error = %v", err)
		}
		if s.StandardDailyGoal != core.DefaultStandardGoal || s.WorkDays != nil {
			t.Errorf("settings = %+v", s)
		}
	})

	t.Run("full file", func(t *testing.T) {
		path := writeSettings(t, `
starting_balance = -250.75
standard_daily_goal = 900.0
work_days = ["monday", "Tue", "WED", "Thu", "Fri"]

[[categories]]
name = "Food"
budgeted = 300.5
color = "#ff0000"

[[categories]]
name = "Fuel"
budgeted = 120.0
`)
		s, err := LoadSettings(path)
		if err != nil {
			t.Fatalf("LoadSettings() error = %v", err)
		}
		if s.StartingBalance.Cents != -25075 || s.StandardDailyGoal.Cents != 90000 {
			t.Errorf("money fields = %v / %v", s.StartingBalance, s.StandardDailyGoal)
		}
		if !s.WorkDayFor("Mon") || !s.WorkDayFor("Wed") || s.WorkDayFor("Sat") || s.WorkDayFor("Sun") {
			t.Errorf("work days = %v", s.WorkDays)
		}
		if len(s.Categories) != 2 || s.Categories[0].Budgeted.Cents != 30050 || s.Categories[0].Color != "#ff0000" {
			t.Errorf("categories = %+v", s.Categories)
		}
	})

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"zero goal", "standard_daily_goal = 0.0\n", core.ErrInvalidAmount},
		{"negative budget", "[[categories]]\nname = \"Food\"\nbudgeted = -1.0\n", core.ErrInvalidAmount},
		{"nameless category", "[[categories]]\nbudgeted = 10.0\n", core.ErrEmptyCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSettings(writeSettings(t, tt.content))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadSettings() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("unknown day", func(t *testing.T) {
		if _, err := LoadSettings(writeSettings(t, `work_days = ["Funday"]`)); err == nil {
			t.Error("expected error for unknown day")
		}
	})

	t.Run("malformed toml", func(t *testing.T) {
		if _, err := LoadSettings(writeSettings(t, "starting_balance = [")); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadSettings(filepath.Join(t.TempDir(), "none.toml")); err == nil {
			t.Error("expected read error")
		}
	})
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	in := core.Settings{
		StartingBalance:   core.Money{Cents: 120050},
		StandardDailyGoal: core.Money{Cents: 80000},
		WorkDays:          map[string]bool{"Mon": true, "Tue": false, "Sat": true},
		Categories:        []core.BudgetCategory{{Name: "Food", Budgeted: core.Money{Cents: 30000}}},
	}
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := SaveSettings(path, in); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	out, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if out.StartingBalance != in.StartingBalance || out.StandardDailyGoal != in.StandardDailyGoal {
		t.Errorf("money = %v / %v", out.StartingBalance, out.StandardDailyGoal)
	}
	if !out.WorkDayFor("Mon") || !out.WorkDayFor("Sat") || out.WorkDayFor("Tue") {
		t.Errorf("work days = %v", out.WorkDays)
	}
	if len(out.Categories) != 1 || out.Categories[0].Budgeted.Cents != 30000 {
		t.Errorf("categories = %+v", out.Categories)
	}
}
