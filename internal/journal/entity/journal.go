package entity

import (
	"strings"
	"time"
)

// Kind distinguishes the two lifecycle events recorded in the journal.
type Kind int16

const (
	KindUnknown   Kind = 0
	KindIssued    Kind = 1
	KindValidated Kind = 2
)

func KindFromString(raw string) Kind {
	switch strings.TrimSpace(raw) {
	case "issued":
		return KindIssued
	case "validated":
		return KindValidated
	default:
		return KindUnknown
	}
}

func (k Kind) String() string {
	switch k {
	case KindIssued:
		return "issued"
	case KindValidated:
		return "validated"
	default:
		return "unknown"
	}
}

// Entry is one append-only journal row describing a passcode lifecycle event.
type Entry struct {
	ID             int64
	PlayerID       string
	ContactAddress string
	Kind           Kind
	Outcome        string
	Attempts       int
	CreatedAt      time.Time
}
