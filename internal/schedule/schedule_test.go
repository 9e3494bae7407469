package schedule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinuteOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"07:30", 450, true},
		{"00:00", 0, true},
		{"23:59", 1439, true},
		{"12:35", 755, true},
		{"24:00", 0, false},
		{"07:60", 0, false},
		{"07:3a", 0, false},
		{"1a:30", 0, false},
		{"07:30:00", 0, false},
		{"morning", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, err := MinuteOfDay(c.in)
		if !c.ok {
			assert.Error(t, err, "input %q", c.in)
			continue
		}
		require.NoError(t, err, "input %q", c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	name, w, ok := cfg.ForGrade(2)
	require.True(t, ok)
	assert.Equal(t, "MORNING", name)
	assert.Equal(t, "07:30", w.Start)

	name, w, ok = cfg.ForGrade(5)
	require.True(t, ok)
	assert.Equal(t, "AFTERNOON", name)
	assert.Equal(t, "12:35", w.Start)

	_, _, ok = cfg.ForGrade(7)
	assert.False(t, ok, "grade 7 has no window")
}

func TestValidateRejectsOverlap(t *testing.T) {
	cfg := Config{
		Timezone: "Asia/Manila",
		Windows: map[string]Window{
			"A": {Start: "07:30", End: "11:30", Grades: []int{1, 2}},
			"B": {Start: "12:35", End: "17:30", Grades: []int{2, 3}},
		},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grade 2")
}

func TestValidateRejectsBadTimes(t *testing.T) {
	cfg := Config{
		Windows: map[string]Window{
			"A": {Start: "7am", End: "11:30", Grades: []int{1}},
		},
	}
	assert.Error(t, cfg.Validate())

	cfg.Windows = map[string]Window{}
	assert.Error(t, cfg.Validate())
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.toml")
	content := `
timezone = "Asia/Manila"

[windows.MORNING]
start = "08:00"
end = "12:00"
grades = [1, 2]

[windows.AFTERNOON]
start = "13:00"
end = "17:00"
grades = [3, 4]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Manila", cfg.Timezone)

	name, w, ok := cfg.ForGrade(3)
	require.True(t, ok)
	assert.Equal(t, "AFTERNOON", name)
	assert.Equal(t, "13:00", w.Start)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.toml")
	content := `
[windows.ONLY]
start = "08:00"
end = "12:00"
grades = []
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}
