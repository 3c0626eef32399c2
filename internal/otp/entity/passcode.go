package entity

import "time"

// Passcode is the per-player one-time passcode record. At most one exists per
// player; reissuing replaces it in place.
type Passcode struct {
	PlayerID           string
	ContactAddress     string
	Code               string
	IssuedAt           time.Time
	ExpiresAt          time.Time
	GenerationAttempts int
	ValidationAttempts int
}

// ExpiredAt reports whether the passcode is past its validity window at the
// given instant. Expired records are dead for validation even while still
// present in storage.
func (p Passcode) ExpiredAt(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Mutator is applied by a store inside a per-key critical section.
//
// cur is nil when no record exists. The returned record, when non-nil, is
// persisted even if verdict is non-nil, so attempt counters advance on failed
// validations. Returning (nil, nil) deletes the record; returning
// (nil, verdict) leaves storage untouched.
type Mutator func(cur *Passcode) (next *Passcode, verdict error)
