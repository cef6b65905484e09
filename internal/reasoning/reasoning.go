// Package reasoning carries role prompts to the configured language
// models. It owns the shared admission limiter, per-call timeouts, and
// the retry policy for transient provider failures. Callers build the
// prompt context; this package only moves it across the wire.
package reasoning

import (
	"context"
	"errors"

	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

// Request is one reasoning call on behalf of a single role.
type Request struct {
	RunID   string
	Role    roles.Role
	System  string // role instruction prompt
	Context string // rendered run context (reports, history tail)
}

// Usage reports token consumption for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is the model's answer to a Request.
type Response struct {
	Text  string
	Usage Usage
	Model string
}

// Provider accepts reasoning requests. Implementations must be safe
// for concurrent use; many runs share one instance.
type Provider interface {
	Submit(ctx context.Context, req Request) (*Response, error)
}

// Sentinel errors returned by Submit. Wrapped causes are reachable
// through errors.Unwrap.
var (
	// ErrTimeout means a call exceeded its per-call deadline, including
	// retries. The owning run decides whether that is fatal.
	ErrTimeout = errors.New("reasoning call timed out")

	// ErrProvider means the provider failed in a way retries could not
	// fix, or the failure was not worth retrying at all.
	ErrProvider = errors.New("reasoning provider failed")
)

// Classify maps a Submit error onto the run error taxonomy. Context
// cancellation is not classified; the caller handles it as run
// cancellation, not as a provider fault.
func Classify(err error) state.ErrorKind {
	if errors.Is(err, ErrTimeout) {
		return state.KindProviderTimeout
	}
	return state.KindProviderError
}
