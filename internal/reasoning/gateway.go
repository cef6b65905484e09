package reasoning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vinayprograms/agentkit/llm"
	"github.com/vinayprograms/agentkit/logging"

	"github.com/guangxiangdebizi/tradingagents/internal/roles"
)

// Retry and timeout defaults. Retries apply to transient failures
// only; malformed or fatal provider answers return immediately.
const (
	defaultCallTimeout = 60 * time.Second
	defaultMaxRetries  = 2
	defaultInitBackoff = 1 * time.Second
	defaultMaxBackoff  = 30 * time.Second
	backoffFactor      = 2.0
)

// GatewayConfig assembles a Gateway. Quick is required; Deep is
// optional and serves the manager and trader roles when present.
type GatewayConfig struct {
	Quick   llm.Provider
	Deep    llm.Provider
	Limiter *Limiter

	CallTimeout time.Duration
	MaxRetries  int
	InitBackoff time.Duration
	MaxBackoff  time.Duration

	Logger *logging.Logger
}

// Gateway is the production Provider. It routes requests to one of two
// underlying models, applies the shared limiter, a per-call timeout,
// and bounded retries with exponential backoff.
type Gateway struct {
	quick   llm.Provider
	deep    llm.Provider
	limiter *Limiter

	timeout     time.Duration
	maxRetries  int
	initBackoff time.Duration
	maxBackoff  time.Duration

	log *logging.Logger
}

// NewGateway creates a Gateway, filling unset config with defaults.
func NewGateway(cfg GatewayConfig) *Gateway {
	g := &Gateway{
		quick:       cfg.Quick,
		deep:        cfg.Deep,
		limiter:     cfg.Limiter,
		timeout:     cfg.CallTimeout,
		maxRetries:  cfg.MaxRetries,
		initBackoff: cfg.InitBackoff,
		maxBackoff:  cfg.MaxBackoff,
		log:         cfg.Logger,
	}
	if g.limiter == nil {
		g.limiter = NewLimiter(0)
	}
	if g.timeout <= 0 {
		g.timeout = defaultCallTimeout
	}
	if g.maxRetries <= 0 {
		g.maxRetries = defaultMaxRetries
	}
	if g.initBackoff <= 0 {
		g.initBackoff = defaultInitBackoff
	}
	if g.maxBackoff <= 0 {
		g.maxBackoff = defaultMaxBackoff
	}
	if g.log == nil {
		g.log = logging.New().WithComponent("reasoning")
	}
	return g
}

// Submit implements Provider. The limiter slot is held for the whole
// call, retries included, so backed-off retries do not free capacity
// for new admissions ahead of them.
func (g *Gateway) Submit(ctx context.Context, req Request) (*Response, error) {
	if err := g.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer g.limiter.Release()

	provider := g.providerFor(req.Role)
	backoff := g.initBackoff
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		resp, err := g.call(ctx, provider, req)
		if err == nil {
			if attempt > 0 {
				g.log.Info("reasoning call recovered", map[string]interface{}{
					"run":     req.RunID,
					"role":    string(req.Role),
					"attempt": attempt,
				})
			}
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		if !isTransient(err) {
			if errors.Is(err, ErrProvider) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: role %s: %v", ErrProvider, req.Role, err)
		}
		if attempt == g.maxRetries {
			break
		}

		g.log.Warn("reasoning call failed, retrying", map[string]interface{}{
			"run":     req.RunID,
			"role":    string(req.Role),
			"attempt": attempt,
			"backoff": backoff.String(),
			"error":   err.Error(),
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * backoffFactor)
		if backoff > g.maxBackoff {
			backoff = g.maxBackoff
		}
	}

	if isTimeout(lastErr) {
		return nil, fmt.Errorf("%w: role %s after %d attempts: %v", ErrTimeout, req.Role, g.maxRetries+1, lastErr)
	}
	return nil, fmt.Errorf("%w: role %s after %d attempts: %v", ErrProvider, req.Role, g.maxRetries+1, lastErr)
}

// call performs a single attempt under the per-call deadline.
func (g *Gateway) call(ctx context.Context, provider llm.Provider, req Request) (*Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := provider.Chat(callCtx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Context},
		},
	})
	if err != nil {
		// A deadline on the call context alone is our timeout; the
		// parent being done means the run was cancelled instead.
		if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, g.timeout)
		}
		return nil, err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("%w: role %s returned empty output", ErrProvider, req.Role)
	}
	return &Response{
		Text: resp.Content,
		Usage: Usage{
			InputTokens:  resp.InputTokens,
			OutputTokens: resp.OutputTokens,
		},
		Model: resp.Model,
	}, nil
}

// providerFor picks the deep model for decision roles when one is
// configured. Analysts and debaters always use the quick model.
func (g *Gateway) providerFor(role roles.Role) llm.Provider {
	if g.deep != nil && role.IsDecision() {
		return g.deep
	}
	return g.quick
}

// isTransient reports whether an attempt is worth retrying. Rate
// limits, 5xx-class failures, and our own per-call timeouts qualify.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if isTimeout(err) {
		return true
	}
	return isRateLimitError(err) || isServerError(err)
}

func isTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func isRateLimitError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "capacity")
}

func isServerError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "bad gateway") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "gateway timeout") ||
		strings.Contains(errStr, "temporarily unavailable")
}
