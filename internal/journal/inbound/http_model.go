package inbound

import "time"

type JournalEntryResponse struct {
	ID             int64     `json:"id,string"`
	PlayerID       string    `json:"player_id"`
	ContactAddress string    `json:"contact_address"`
	Kind           string    `json:"kind"`
	Outcome        string    `json:"outcome"`
	Attempts       int       `json:"attempts"`
	CreatedAt      time.Time `json:"created_at"`
}
