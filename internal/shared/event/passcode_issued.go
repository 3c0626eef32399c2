package event

import "time"

const PasscodeIssuedDestination string = "otp_passcode_issued"
const PasscodeIssuedConsumerJournal string = "otp_passcode_issued_journal"

type PasscodeIssuedMessage struct {
	PlayerID           string    `json:"player_id"`
	ContactAddress     string    `json:"contact_address"`
	ExpiresAt          time.Time `json:"expires_at"`
	GenerationAttempts int       `json:"generation_attempts"`
}
