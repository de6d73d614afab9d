package pubsub

import (
	"log/slog"
	"sync"
	"time"
)

// Coalescing defaults, overridable via NewRegistryWithWindows
const (
	DefaultCoalesceWindow   = 100 * time.Millisecond
	DefaultCoalesceMaxDelay = time.Second
)

// Handler receives the signal payload; nil for coalesced wake-up hints.
// Handlers run on registry goroutines and must not block.
type Handler func(payload []byte)

// Registration ties one live handler to a routing key. Owned by the
// subscribing stream/session and closed on its teardown.
type Registration struct {
	key      string
	handler  Handler
	registry *Registry
	once     sync.Once
}

// Key returns the routing key this registration listens on
func (r *Registration) Key() string {
	return r.key
}

// Close removes the registration; further signals are not delivered
func (r *Registration) Close() {
	r.once.Do(func() {
		r.registry.remove(r)
	})
}

// Registry is the process-local listener table bridging the global
// broadcast channel to in-process handlers. Payload-less signals are
// coalesced per routing key: a pending window timer is pushed back by
// each arrival until a hard deadline bounds worst-case latency.
type Registry struct {
	mu       sync.Mutex
	handlers map[string][]*Registration
	pending  map[string]*coalesceState
	window   time.Duration
	maxDelay time.Duration
	closed   bool
	logger   *slog.Logger
}

type coalesceState struct {
	timer   *time.Timer
	initial time.Time
}

// NewRegistry creates a Registry with the default coalescing windows
func NewRegistry(logger *slog.Logger) *Registry {
	return NewRegistryWithWindows(DefaultCoalesceWindow, DefaultCoalesceMaxDelay, logger)
}

// NewRegistryWithWindows creates a Registry with explicit windows
func NewRegistryWithWindows(window, maxDelay time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		handlers: make(map[string][]*Registration),
		pending:  make(map[string]*coalesceState),
		window:   window,
		maxDelay: maxDelay,
		logger:   logger,
	}
}

// Register adds a handler for a routing key and returns its
// registration handle
func (g *Registry) Register(key string, h Handler) *Registration {
	reg := &Registration{key: key, handler: h, registry: g}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return reg
	}
	g.handlers[key] = append(g.handlers[key], reg)
	return reg
}

// Dispatch routes one incoming signal. Inline-payload signals invoke
// handlers immediately; empty signals run through the coalescer.
func (g *Registry) Dispatch(sig Signal) {
	if len(sig.Payload) > 0 {
		g.invoke(sig.Key, sig.Payload)
		return
	}

	g.mu.Lock()
	if g.closed || len(g.handlers[sig.Key]) == 0 {
		g.mu.Unlock()
		return
	}

	key := sig.Key
	now := time.Now()
	st, ok := g.pending[key]
	switch {
	case !ok:
		st = &coalesceState{initial: now}
		st.timer = time.AfterFunc(g.window, func() { g.fire(key) })
		g.pending[key] = st
		g.mu.Unlock()
	case now.Sub(st.initial) >= g.maxDelay:
		// Sustained burst: fire now instead of pushing the timer back
		st.timer.Stop()
		delete(g.pending, key)
		g.mu.Unlock()
		g.invoke(key, nil)
	default:
		st.timer.Reset(g.window)
		g.mu.Unlock()
	}
}

// fire delivers a coalesced wake-up for a key
func (g *Registry) fire(key string) {
	g.mu.Lock()
	delete(g.pending, key)
	g.mu.Unlock()
	g.invoke(key, nil)
}

// invoke calls every handler registered for the key
func (g *Registry) invoke(key string, payload []byte) {
	g.mu.Lock()
	regs := make([]*Registration, len(g.handlers[key]))
	copy(regs, g.handlers[key])
	g.mu.Unlock()

	for _, reg := range regs {
		reg.handler(payload)
	}
}

// remove drops a registration and clears its key's pending timer when
// it was the last listener
func (g *Registry) remove(reg *Registration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	regs := g.handlers[reg.key]
	for i, r := range regs {
		if r == reg {
			g.handlers[reg.key] = append(regs[:i], regs[i+1:]...)
			break
		}
	}
	if len(g.handlers[reg.key]) == 0 {
		delete(g.handlers, reg.key)
		if st, ok := g.pending[reg.key]; ok {
			st.timer.Stop()
			delete(g.pending, reg.key)
		}
	}
}

// Close stops all pending timers and drops every registration
func (g *Registry) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	for key, st := range g.pending {
		st.timer.Stop()
		delete(g.pending, key)
	}
	g.handlers = make(map[string][]*Registration)
}
