// Package schedule holds the static attendance schedule: named windows
// mapping grades to a start/end wall-clock time in the institution's
// timezone.
package schedule

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Window is one named period of the school day.
type Window struct {
	Start  string `toml:"start" json:"start"`
	End    string `toml:"end" json:"end"`
	Grades []int  `toml:"grades" json:"grades"`
}

// Config is the full schedule configuration. Windows must not overlap
// in grade coverage; every grade in use maps to exactly one window.
type Config struct {
	Timezone string            `toml:"timezone" json:"timezone"`
	Windows  map[string]Window `toml:"windows" json:"windows"`
}

// Default returns the built-in schedule used when no config file is
// provided.
func Default() Config {
	return Config{
		Timezone: "Asia/Manila",
		Windows: map[string]Window{
			"MORNING":   {Start: "07:30", End: "11:30", Grades: []int{1, 2, 3}},
			"AFTERNOON": {Start: "12:35", End: "17:30", Grades: []int{4, 5, 6}},
		},
	}
}

// Load reads a TOML schedule file and validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read schedule config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse schedule config %s: %w", path, err)
	}
	if cfg.Timezone == "" {
		cfg.Timezone = Default().Timezone
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks times parse and no grade is claimed by two windows.
func (c Config) Validate() error {
	if len(c.Windows) == 0 {
		return fmt.Errorf("schedule has no windows")
	}
	seen := map[int]string{}
	names := make([]string, 0, len(c.Windows))
	for name := range c.Windows {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w := c.Windows[name]
		if _, err := MinuteOfDay(w.Start); err != nil {
			return fmt.Errorf("window %s: %w", name, err)
		}
		if _, err := MinuteOfDay(w.End); err != nil {
			return fmt.Errorf("window %s: %w", name, err)
		}
		if len(w.Grades) == 0 {
			return fmt.Errorf("window %s covers no grades", name)
		}
		for _, g := range w.Grades {
			if other, ok := seen[g]; ok {
				return fmt.Errorf("grade %d covered by both %s and %s", g, other, name)
			}
			seen[g] = name
		}
	}
	return nil
}

// ForGrade returns the window governing a grade, if any.
func (c Config) ForGrade(grade int) (string, Window, bool) {
	for name, w := range c.Windows {
		for _, g := range w.Grades {
			if g == grade {
				return name, w, true
			}
		}
	}
	return "", Window{}, false
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// MinuteOfDay converts an "HH:MM" string to minutes since midnight.
// Both halves must be pure digits; trailing garbage is rejected.
func MinuteOfDay(hhmm string) (int, error) {
	hs, ms, ok := strings.Cut(hhmm, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", hhmm)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", hhmm)
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", hhmm)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", hhmm)
	}
	return h*60 + m, nil
}
