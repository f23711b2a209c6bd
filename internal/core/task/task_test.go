package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternSet_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b PatternSet
		want bool
	}{
		{"reordered", NewPatternSet("*.tmp", "build/"), NewPatternSet("build/", "*.tmp"), true},
		{"duplicates collapse", NewPatternSet("*.tmp", "*.tmp"), NewPatternSet("*.tmp"), true},
		{"whitespace trimmed", NewPatternSet("  *.tmp "), NewPatternSet("*.tmp"), true},
		{"both empty", NewPatternSet(), ParsePatternSet(""), true},
		{"missing entry", NewPatternSet("*.tmp"), NewPatternSet("*.tmp", "*.log"), false},
		{"different entry", NewPatternSet("*.tmp"), NewPatternSet("*.log"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestParsePatternSet(t *testing.T) {
	set := ParsePatternSet("*.tmp\r\n\nbuild/\n  \n*.log")
	assert.Equal(t, []string{"*.log", "*.tmp", "build/"}, set.Sorted())
}

func TestPatternSet_String(t *testing.T) {
	assert.Equal(t, "", NewPatternSet().String())
	assert.Equal(t, "*.tmp\nbuild/\n", NewPatternSet("build/", "*.tmp").String())

	// Round trip through file content preserves set identity.
	set := NewPatternSet("b", "a", "c")
	assert.True(t, set.Equal(ParsePatternSet(set.String())))
}

func TestDefinition_Equal(t *testing.T) {
	base := Definition{
		Name:           "docs",
		LocalPath:      "/data/docs",
		RemoteURL:      "git@example.com:me/docs.git",
		Cron:           "*/5 * * * *",
		IgnorePatterns: NewPatternSet("*.tmp", "*.log"),
		LFSPatterns:    NewPatternSet("*.psd"),
	}

	reordered := base
	reordered.IgnorePatterns = NewPatternSet("*.log", "*.tmp")
	assert.True(t, base.Equal(reordered))

	changed := base
	changed.Cron = "0 * * * *"
	assert.False(t, base.Equal(changed))

	notify := base
	notify.NotifyOnSuccess = true
	assert.False(t, base.Equal(notify))
}

func TestParseCron(t *testing.T) {
	ref := time.Date(2026, 10, 17, 10, 0, 30, 0, time.UTC)

	tests := []struct {
		expr string
		next time.Time
	}{
		{"*/5 * * * *", time.Date(2026, 10, 17, 10, 5, 0, 0, time.UTC)},
		{"0 */5 * * * *", time.Date(2026, 10, 17, 10, 5, 0, 0, time.UTC)},
		{"15 * * * * ?", time.Date(2026, 10, 17, 10, 1, 15, 0, time.UTC)},
		{"@hourly", time.Date(2026, 10, 17, 11, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			sched, err := ParseCron(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.next, sched.Next(ref))
		})
	}

	for _, bad := range []string{"", "not a cron", "61 * * * *", "* * * * * * *"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := ParseCron(bad)
			require.Error(t, err)
		})
	}
}
