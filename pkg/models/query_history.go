package models

import (
	"strings"
	"time"
)

// DefaultHistoryTurns is how many prior turns are included in a prompt.
const DefaultHistoryTurns = 5

// HistoryTurn is one earlier question and the SQL generated for it.
// History is owned by the caller; the translation pipeline only reads it.
type HistoryTurn struct {
	Timestamp time.Time `json:"timestamp"`
	Question  string    `json:"question"`
	SQL       string    `json:"sql"`
}

// IsValid reports whether the turn carries both a question and its SQL.
func (h HistoryTurn) IsValid() bool {
	return strings.TrimSpace(h.Question) != "" && strings.TrimSpace(h.SQL) != ""
}
