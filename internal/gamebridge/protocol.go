package gamebridge

import (
	"encoding/json"
	"errors"
	"strings"
)

// ProtocolVersion is the bridge message schema version announced in the
// readiness ping and required on inbound messages.
const ProtocolVersion = "2.0"

// Message types exchanged with the embedded game. The unprefixed forms are
// accepted for games built against the older informal contract.
const (
	TypeGetUser             = "LIVETALK_GET_USER"
	TypeGetUserLegacy       = "GET_USER_INFO"
	TypeUpdateBalance       = "LIVETALK_UPDATE_BALANCE"
	TypeUpdateBalanceLegacy = "UPDATE_BALANCE"

	TypeUserData       = "LIVETALK_USER_DATA"
	TypeBalanceUpdated = "LIVETALK_BALANCE_UPDATED"
	TypeError          = "LIVETALK_ERROR"
	TypeReady          = "LIVETALK_READY"
)

var (
	ErrBadVersion = errors.New("unsupported protocol version")
	ErrStaleSeq   = errors.New("stale or duplicate sequence number")
	ErrBadMessage = errors.New("malformed bridge message")
)

// Envelope frames every bridge message. Inbound messages must carry the
// protocol version and a sequence number that is strictly greater than the
// previous one on the same session, so forged replays and duplicates are
// rejected instead of applied twice.
type Envelope struct {
	V       string          `json:"v"`
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate checks the frame independent of session state.
func (e *Envelope) Validate() error {
	if strings.TrimSpace(e.Type) == "" {
		return ErrBadMessage
	}
	if e.V != ProtocolVersion {
		return ErrBadVersion
	}
	return nil
}

// UserDataPayload answers a user-info request.
type UserDataPayload struct {
	Name      string  `json:"name"`
	Coins     float64 `json:"coins"`
	Avatar    string  `json:"avatar"`
	ID        string  `json:"id"`
	Timestamp int64   `json:"timestamp"`
}

// UpdateBalancePayload carries a balance delta from the game. Negative
// amounts are stakes, positive amounts are winnings.
type UpdateBalancePayload struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason,omitempty"`
}

// BalanceUpdatedPayload confirms an applied balance change.
type BalanceUpdatedPayload struct {
	NewBalance float64 `json:"newBalance"`
}

// ReadyPayload is the one-shot readiness ping sent to the game.
type ReadyPayload struct {
	Version string `json:"version"`
}

func marshalPayload(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
