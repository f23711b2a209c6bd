// Package task defines the synchronization task domain types.
package task

import (
	"fmt"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"
)

// Definition is one configured directory-to-remote synchronization unit.
// Definitions are immutable once loaded; Name is the identity key.
type Definition struct {
	Name            string
	LocalPath       string
	RemoteURL       string
	Cron            string
	IgnorePatterns  PatternSet
	LFSPatterns     PatternSet
	NotifyOnSuccess bool
}

// Equal reports whether two definitions describe the same task configuration.
// Pattern sets compare order-insensitively.
func (d Definition) Equal(o Definition) bool {
	return d.Name == o.Name &&
		d.LocalPath == o.LocalPath &&
		d.RemoteURL == o.RemoteURL &&
		d.Cron == o.Cron &&
		d.NotifyOnSuccess == o.NotifyOnSuccess &&
		d.IgnorePatterns.Equal(o.IgnorePatterns) &&
		d.LFSPatterns.Equal(o.LFSPatterns)
}

// PatternSet is an unordered set of rule patterns.
type PatternSet map[string]struct{}

// NewPatternSet builds a set from patterns, trimming whitespace and dropping blanks.
func NewPatternSet(patterns ...string) PatternSet {
	set := make(PatternSet, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		set[p] = struct{}{}
	}
	return set
}

// ParsePatternSet reads one pattern per line, as stored in an ignore file.
func ParsePatternSet(content string) PatternSet {
	return NewPatternSet(strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")...)
}

// Equal reports set equality.
func (s PatternSet) Equal(o PatternSet) bool {
	if len(s) != len(o) {
		return false
	}
	for p := range s {
		if _, ok := o[p]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the patterns in lexical order.
func (s PatternSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// String renders the set as file content, one sorted pattern per line.
// An empty set renders as an empty string.
func (s PatternSet) String() string {
	if len(s) == 0 {
		return ""
	}
	return strings.Join(s.Sorted(), "\n") + "\n"
}

// cronParser accepts the standard five-field form, an optional leading
// seconds field, and descriptors such as @hourly.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseCron parses a five- or six-field cron expression.
func ParseCron(expr string) (cron.Schedule, error) {
	sched, err := cronParser.Parse(strings.TrimSpace(expr))
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", expr, err)
	}
	return sched, nil
}
