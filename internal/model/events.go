package model

import "time"

// EventType identifies a real-time event on the broadcast stream.
type EventType string

const (
	EventRoundCommitted  EventType = "ROUND_COMMITTED"
	EventBettingOpen     EventType = "BETTING_OPEN"
	EventRoundRunning    EventType = "ROUND_RUNNING"
	EventMultiplierTick  EventType = "MULTIPLIER_TICK"
	EventPlayerCashedOut EventType = "PLAYER_CASHED_OUT"
	EventCrashed         EventType = "CRASHED"
	EventSettled         EventType = "SETTLED"
	EventError           EventType = "ERROR"
)

// Event is a single message on the ordered round event stream. Fields not
// relevant to the event type are left zero and omitted from the JSON form.
type Event struct {
	Seq        uint64    `json:"seq"`
	Type       EventType `json:"type"`
	RoundID    string    `json:"round_id,omitempty"`
	Commitment string    `json:"commitment,omitempty"`
	Multiplier float64   `json:"multiplier,omitempty"`
	CrashPoint float64   `json:"crash_point,omitempty"`
	ServerSeed string    `json:"server_seed,omitempty"`
	ClientSeed string    `json:"client_seed,omitempty"`
	Nonce      uint64    `json:"nonce,omitempty"`
	PlayerID   string    `json:"player_id,omitempty"`
	PayoutUSD  string    `json:"payout_usd,omitempty"`
	Code       string    `json:"code,omitempty"`
	Message    string    `json:"message,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
