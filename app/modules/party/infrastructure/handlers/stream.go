package partyhandlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	"github.com/Black-And-White-Club/hunting-party/app/shared/httpx"
	"github.com/google/uuid"
)

// HandleStream serves the party's realtime envelopes as server-sent events.
// The stream opens with the current leaderboard and, when ranked, the
// caller's rivalry, then relays pushes until the client goes away.
func (h *PartyHandlers) HandleStream(w http.ResponseWriter, r *http.Request) {
	userID, partyID, ok := h.caller(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.WriteError(w, r, h.logger, fmt.Errorf("streaming unsupported by %T", w))
		return
	}

	// Join before the snapshot so nothing published in between is lost.
	connID := uuid.NewString()
	envelopes, leave, err := h.hub.Join(ctx, connID, partyID, userID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	defer leave()

	entries, err := h.service.GetLeaderboard(ctx, userID, partyID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	rivalry := partydomain.ComputeRivalry(entries, userID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	now := time.Now().UTC()
	if err := writeSnapshot(w, partydomain.EventLeaderboardUpdated, partyID, "", entries, now); err != nil {
		return
	}
	if rivalry != nil {
		if err := writeSnapshot(w, partydomain.EventRivalryUpdated, partyID, userID, rivalry, now); err != nil {
			return
		}
	}
	flusher.Flush()

	h.logger.InfoContext(ctx, "Realtime stream opened",
		attr.String("conn_id", connID),
		attr.String("party_id", partyID.String()),
		attr.String("user_id", userID),
	)
	defer h.logger.InfoContext(ctx, "Realtime stream closed", attr.String("conn_id", connID))

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case env, ok := <-envelopes:
			if !ok {
				return
			}
			if err := writeEvent(w, env); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSnapshot(w http.ResponseWriter, event string, partyID uuid.UUID, userID string, payload any, at time.Time) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return writeEvent(w, partydomain.Envelope{Event: event, PartyID: partyID, UserID: userID, Payload: raw, SentAt: at})
}

func writeEvent(w http.ResponseWriter, env partydomain.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", env.Event, data)
	return err
}
