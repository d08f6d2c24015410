// Package generator defines the external task-content capability. The planner
// works against the ContentGenerator interface; the concrete client talks to
// the Anthropic Messages API, and Disabled stands in when no key is configured.
package generator

import (
	"context"
	"errors"
)

// ErrUnavailable reports that the content capability is not configured or the
// upstream call failed. Callers are expected to fall back to templates.
var ErrUnavailable = errors.New("content generator unavailable")

// HistoryEntry is one prior task passed to the generator for context.
type HistoryEntry struct {
	Title      string `json:"title"`
	Status     string `json:"status"`
	Difficulty int    `json:"difficulty"`
	Date       string `json:"date"`
}

// MissedEntry is a previously missed task that adapted tasks derive from.
type MissedEntry struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Difficulty  int    `json:"difficulty"`
}

// Request carries everything the generator needs to write one day's tasks.
type Request struct {
	GoalTitle         string
	GoalDescription   string
	DaysUntilDeadline int
	Progress          int
	Strategy          string
	History           []HistoryEntry
	Missed            []MissedEntry
	Count             int
	AdaptedCount      int
	Difficulty        int
}

// TaskItem is one generated task before sanitization and persistence.
type TaskItem struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Difficulty  int    `json:"difficulty,omitempty"`
}

// ContentGenerator produces task content for a generation request.
type ContentGenerator interface {
	Generate(ctx context.Context, req Request) ([]TaskItem, error)
}

// Disabled is the capability variant used when no API key is configured.
// Every call reports ErrUnavailable so composition falls through to templates.
type Disabled struct{}

func (Disabled) Generate(context.Context, Request) ([]TaskItem, error) {
	return nil, ErrUnavailable
}
