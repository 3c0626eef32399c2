package inbound

import (
	"github.com/goalpass/goalpass/internal/otp/usecase"
	"github.com/goalpass/goalpass/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the passcode lifecycle.
type HTTPEndpoint struct {
	uc uc
}

// Issue generates and delivers a fresh passcode for a player.
// @Summary Issue passcode
// @Description Generates a one-time passcode bound to the player, replaces any previous one, and delivers it to the given address.
// @Tags OTP
// @Accept json
// @Produce json
// @Param player_id path string true "Player identifier"
// @Param request body IssueRequest true "Issue payload"
// @Success 202 {object} router.successResponse{data=IssueResponse} "Passcode sent"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many passcode requests"
// @Failure 502 {object} router.errorResponse "Delivery failed"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/players/{player_id}/otp [post]
func (h *HTTPEndpoint) Issue(r *router.Request) (any, error) {
	var req IssueRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Issue(r.Context(), usecase.IssueInput{
		PlayerID:       r.GetParam("player_id"),
		ContactAddress: req.Email,
	})
	if err != nil {
		return nil, err
	}

	return IssueResponse{ExpiresAt: resp.ExpiresAt}, nil
}

// Validate checks a submitted passcode for a player.
// @Summary Validate passcode
// @Description Verifies the submitted passcode against the player's active record. A successful validation consumes the passcode.
// @Tags OTP
// @Accept json
// @Produce json
// @Param player_id path string true "Player identifier"
// @Param request body ValidateRequest true "Validate payload"
// @Success 200 {object} router.successResponse{data=ValidateResponse} "Passcode accepted"
// @Failure 400 {object} router.errorResponse "Malformed or expired passcode"
// @Failure 401 {object} router.errorResponse "Incorrect passcode"
// @Failure 404 {object} router.errorResponse "No active passcode"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many failed attempts"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/players/{player_id}/otp/validate [post]
func (h *HTTPEndpoint) Validate(r *router.Request) (any, error) {
	var req ValidateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Validate(r.Context(), usecase.ValidateInput{
		PlayerID:       r.GetParam("player_id"),
		ContactAddress: req.Email,
		Code:           req.OTP,
	}); err != nil {
		return nil, err
	}

	return ValidateResponse{}, nil
}

// Peek returns a player's stored passcode record including the plaintext code.
// @Summary Peek passcode record
// @Description Diagnostic endpoint; only available when modules.otp.allow_peek is enabled.
// @Tags OTP
// @Produce json
// @Param player_id path string true "Player identifier"
// @Success 200 {object} router.successResponse{data=PeekResponse} "Stored record"
// @Failure 404 {object} router.errorResponse "No active passcode"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/players/{player_id}/otp [get]
func (h *HTTPEndpoint) Peek(r *router.Request) (any, error) {
	resp, err := h.uc.Peek(r.Context(), usecase.PeekInput{PlayerID: r.GetParam("player_id")})
	if err != nil {
		return nil, err
	}

	return PeekResponse{
		PlayerID:           resp.PlayerID,
		ContactAddress:     resp.ContactAddress,
		Code:               resp.Code,
		IssuedAt:           resp.IssuedAt,
		ExpiresAt:          resp.ExpiresAt,
		GenerationAttempts: resp.GenerationAttempts,
		ValidationAttempts: resp.ValidationAttempts,
	}, nil
}
