package engine

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the reply engine fails or times out.
// The turn that triggered the call may be retried by the transport.
var ErrUnavailable = errors.New("reply engine unavailable")

// Engine is the external reply-generation collaborator. It maps a joined
// context window to an utterance and tracks chat ids it has seen. Calls for
// unrelated ids may run concurrently.
type Engine interface {
	Register(ctx context.Context, id string) error
	Reply(ctx context.Context, contextWindow, id string) (string, error)
}
