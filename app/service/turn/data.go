package turn

import (
	"errors"
	"time"
)

// ErrSessionClosed is returned when a turn arrives for a finalized session.
// Transports surface the closing notice to the user; it is not an operator
// error.
var ErrSessionClosed = errors.New("session closed")

// Request is one inbound turn.
type Request struct {
	SessionID string
	Text      string
	// Timestamp of the inbound message; used for the export identifier.
	// Zero means now.
	Timestamp time.Time
	// BotIdentity names the answering bot in the export identifier.
	BotIdentity string
}

// Result is the outcome of one processed turn.
type Result struct {
	Reply     string
	Finalized bool
	// ExportID is set on the turn that finalizes the session, format
	// "{unix_ts}:{user_id}:{bot_identity}".
	ExportID string
}
