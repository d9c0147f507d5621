package events

import "time"

// Type identifies what happened inside a combat session.
type Type string

const (
	TypeCombatStarted       Type = "combat_started"
	TypeTurnChanged         Type = "turn_changed"
	TypeCombatantAdded      Type = "combatant_added"
	TypeCombatantRemoved    Type = "combatant_removed"
	TypeAttackPerformed     Type = "attack_performed"
	TypeStatusEffectAdded   Type = "status_effect_added"
	TypeStatusEffectRemoved Type = "status_effect_removed"
	TypeTerrainUpdated      Type = "terrain_updated"
	TypeCombatEnded         Type = "combat_ended"
)

// Event is a committed state change broadcast to observers. Payload
// carries the type-specific detail and must be safe to read from
// another goroutine, so callers pass snapshots rather than live state.
type Event struct {
	Type      Type        `json:"type"`
	SessionID string      `json:"session_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent stamps the event with the current time.
func NewEvent(eventType Type, sessionID string, payload interface{}) Event {
	return Event{
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
