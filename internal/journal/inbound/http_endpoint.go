package inbound

import (
	"github.com/goalpass/goalpass/internal/journal/entity"
	"github.com/goalpass/goalpass/internal/journal/usecase"
	"github.com/goalpass/goalpass/internal/pkg/router"
	"github.com/samber/lo"
)

// HTTPEndpoint exposes the operator read API for the passcode journal.
type HTTPEndpoint struct {
	uc uc
}

// ListEntries lists a player's passcode lifecycle events, most recent first.
// @Summary List journal entries
// @Description Returns issuance and validation events recorded for a player.
// @Tags Journal
// @Produce json
// @Param player_id query string true "Player identifier"
// @Param limit query int false "Maximum entries to return (default 20, max 100)"
// @Success 200 {object} router.successResponse{data=[]JournalEntryResponse} "Journal entries"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/otp/journal [get]
func (h *HTTPEndpoint) ListEntries(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}

	entries, err := h.uc.ListEntries(r.Context(), usecase.ListEntriesInput{
		PlayerID: r.GetQuery("player_id"),
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}

	return lo.Map(entries, func(e entity.Entry, _ int) JournalEntryResponse {
		return JournalEntryResponse{
			ID:             e.ID,
			PlayerID:       e.PlayerID,
			ContactAddress: e.ContactAddress,
			Kind:           e.Kind.String(),
			Outcome:        e.Outcome,
			Attempts:       e.Attempts,
			CreatedAt:      e.CreatedAt,
		}
	}), nil
}
