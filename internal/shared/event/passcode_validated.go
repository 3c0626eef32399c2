package event

const PasscodeValidatedDestination string = "otp_passcode_validated"
const PasscodeValidatedConsumerJournal string = "otp_passcode_validated_journal"

type PasscodeValidatedMessage struct {
	PlayerID           string `json:"player_id"`
	ContactAddress     string `json:"contact_address"`
	Outcome            string `json:"outcome"`
	ValidationAttempts int    `json:"validation_attempts"`
}
