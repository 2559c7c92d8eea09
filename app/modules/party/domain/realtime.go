package partydomain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Realtime event names, sent as the SSE event and the watermill event_name metadata.
const (
	EventLeaderboardUpdated   = "LeaderboardUpdated"
	EventRivalryUpdated       = "RivalryUpdated"
	EventActivityEventCreated = "ActivityEventCreated"
)

// Envelope is the wire format of every realtime push.
type Envelope struct {
	Event   string          `json:"event"`
	PartyID uuid.UUID       `json:"party_id"`
	UserID  string          `json:"user_id,omitempty"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sent_at"`
}

// PartyTopic addresses every subscriber of a party.
func PartyTopic(partyID uuid.UUID) string {
	return fmt.Sprintf("party.%s", partyID)
}

// UserTopic addresses one member's subscribers within a party.
func UserTopic(partyID uuid.UUID, userID string) string {
	return fmt.Sprintf("party.%s.user.%s", partyID, userID)
}
