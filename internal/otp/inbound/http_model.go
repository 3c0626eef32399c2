package inbound

import (
	"net/http"
	"time"
)

type IssueRequest struct {
	Email string `json:"email"`
}

type IssueResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

func (IssueResponse) StatusCode() int {
	return http.StatusAccepted
}

func (IssueResponse) Message() string {
	return "A passcode has been sent to your contact address."
}

type ValidateRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type ValidateResponse struct{}

func (ValidateResponse) Message() string {
	return "Passcode accepted."
}

type PeekResponse struct {
	PlayerID           string    `json:"player_id"`
	ContactAddress     string    `json:"contact_address"`
	Code               string    `json:"code"`
	IssuedAt           time.Time `json:"issued_at"`
	ExpiresAt          time.Time `json:"expires_at"`
	GenerationAttempts int       `json:"generation_attempts"`
	ValidationAttempts int       `json:"validation_attempts"`
}
