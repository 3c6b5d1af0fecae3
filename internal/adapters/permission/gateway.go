package permission

import (
	"context"
	"sync"
)

// Fixed answers every check and request with the same decision.
type Fixed struct {
	Granted bool
}

func (f Fixed) Check(ctx context.Context) bool { return f.Granted }

func (f Fixed) Request(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return f.Granted, nil
}

// PromptGateway models a runtime permission dialog: Request suspends until someone
// answers through Resolve. A grant is remembered; a denial is not, so the next request
// prompts again.
type PromptGateway struct {
	mu      sync.Mutex
	granted bool
	waiters map[chan bool]struct{}
	// Called (outside the lock) when a request starts waiting.
	onPrompt func()
}

func NewPromptGateway(onPrompt func()) *PromptGateway {
	return &PromptGateway{
		waiters:  make(map[chan bool]struct{}),
		onPrompt: onPrompt,
	}
}

func (p *PromptGateway) Check(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.granted
}

func (p *PromptGateway) Request(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.granted {
		p.mu.Unlock()
		return true, nil
	}
	ch := make(chan bool, 1)
	p.waiters[ch] = struct{}{}
	p.mu.Unlock()

	if p.onPrompt != nil {
		p.onPrompt()
	}

	select {
	case granted := <-ch:
		return granted, nil
	case <-ctx.Done():
		p.mu.Lock()
		delete(p.waiters, ch)
		p.mu.Unlock()
		return false, ctx.Err()
	}
}

// Resolve answers every pending request and returns how many were waiting.
func (p *PromptGateway) Resolve(granted bool) int {
	p.mu.Lock()
	p.granted = granted
	waiters := p.waiters
	p.waiters = make(map[chan bool]struct{})
	p.mu.Unlock()

	for ch := range waiters {
		ch <- granted
	}
	return len(waiters)
}

// Pending reports how many requests are waiting for an answer.
func (p *PromptGateway) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.waiters)
}
