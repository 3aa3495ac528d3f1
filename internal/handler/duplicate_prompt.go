package handler

import (
	"context"
	"sync"
	"time"

	"github.com/vuhoangviet271/packing-video-app/internal/service"

	"github.com/rs/zerolog/log"
)

// DuplicatePrompt bridges the engine's synchronous duplicate check and the
// operator UI's request/response world. The engine blocks inside Resolver
// while the prompt is pending; the UI sees the pending code in the session
// snapshot and answers via POST /session/duplicate. At most one prompt can be
// pending, which matches the single-session engine.
type DuplicatePrompt struct {
	mu      sync.Mutex
	code    string
	answer  chan bool
	timeout time.Duration
}

func NewDuplicatePrompt(timeout time.Duration) *DuplicatePrompt {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &DuplicatePrompt{timeout: timeout}
}

// Resolver adapts the prompt into the engine's callback. A timeout or a
// cancelled context counts as a decline — the safe default is to not record
// over an existing recording without an explicit yes.
func (p *DuplicatePrompt) Resolver() service.DuplicateResolver {
	return func(ctx context.Context, shippingCode string) bool {
		p.mu.Lock()
		if p.answer != nil {
			// A prompt is already pending; should not happen with one engine,
			// but decline rather than deadlock.
			p.mu.Unlock()
			return false
		}
		ch := make(chan bool, 1)
		p.code = shippingCode
		p.answer = ch
		p.mu.Unlock()

		defer func() {
			p.mu.Lock()
			p.code = ""
			p.answer = nil
			p.mu.Unlock()
		}()

		select {
		case proceed := <-ch:
			return proceed
		case <-ctx.Done():
			return false
		case <-time.After(p.timeout):
			log.Warn().Str("shipping_code", shippingCode).Msg("duplicate prompt timed out, declining")
			return false
		}
	}
}

// Pending returns the shipping code awaiting a decision, or "".
func (p *DuplicatePrompt) Pending() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code
}

// Resolve delivers the operator's decision. Returns false when no prompt was
// pending (already answered, timed out, or never asked).
func (p *DuplicatePrompt) Resolve(proceed bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.answer == nil {
		return false
	}
	p.answer <- proceed
	p.answer = nil
	p.code = ""
	return true
}
