package engine

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/muurk/ssdpd/internal/channel"
	"github.com/muurk/ssdpd/internal/logging"
	"github.com/muurk/ssdpd/internal/metrics"
)

// Engine owns the shared discovery channel and the participants using it.
//
// Start, Stop, AddParticipant, RemoveParticipant and Close hold one lock for
// their full duration, including the participant calls they make.
type Engine struct {
	mu sync.Mutex

	running  bool
	listener *channel.Listener
	executor *channel.Executor

	suppressSelf  bool
	startRollback bool
	channelConfig channel.Config

	reg registry
}

// Option configures an Engine
type Option func(*Engine)

// WithChannelConfig sets how the shared channel is acquired on Start
func WithChannelConfig(cfg channel.Config) Option {
	return func(e *Engine) {
		e.channelConfig = cfg
	}
}

// WithStartRollback makes a failed Start stop the participants it had already
// started, in reverse order. Off by default. Without rollback those
// participants stay started against a listener that no longer runs, and a
// later Start fails for any of them that reject a second Start.
func WithStartRollback(enabled bool) Option {
	return func(e *Engine) {
		e.startRollback = enabled
	}
}

// WithSuppressSelfDiscovery sets the initial suppress-self-discovery flag
func WithSuppressSelfDiscovery(enabled bool) Option {
	return func(e *Engine) {
		e.suppressSelf = enabled
	}
}

// New creates a stopped engine with suppress-self-discovery enabled
func New(opts ...Option) *Engine {
	e := &Engine{suppressSelf: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start acquires the shared channel, runs the listener and starts every
// registered participant, clients first. Hosts implementing BootCounter have
// their boot id advanced before they start.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("start: %w", ErrInvalidState)
	}

	ch, err := channel.Open(e.channelConfig)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}

	listener := channel.NewListener(ch)
	executor := channel.NewExecutor()
	if err := executor.Submit(listener); err != nil {
		_ = ch.Close()
		return fmt.Errorf("start: %w", err)
	}

	started := make([]Participant, 0, len(e.reg.clients)+len(e.reg.hosts))
	for _, c := range e.reg.clients {
		if err := e.startParticipant(KindClient, c, listener); err != nil {
			e.abortStart(started, listener, executor)
			return fmt.Errorf("start: %w", err)
		}
		started = append(started, c)
	}
	for _, h := range e.reg.hosts {
		if bc, ok := h.(BootCounter); ok {
			bc.AdvanceBootID()
		}
		if err := e.startParticipant(KindHost, h, listener); err != nil {
			e.abortStart(started, listener, executor)
			return fmt.Errorf("start: %w", err)
		}
		started = append(started, h)
	}

	e.listener = listener
	e.executor = executor
	e.running = true

	metrics.EngineRunning.Set(1)
	metrics.EngineEpochsTotal.Inc()
	logging.Info("Discovery engine started",
		zap.Int("hosts", len(e.reg.hosts)),
		zap.Int("clients", len(e.reg.clients)),
	)
	return nil
}

// abortStart unwinds a failed Start. Started participants are only stopped
// when rollback is enabled.
func (e *Engine) abortStart(started []Participant, listener *channel.Listener, executor *channel.Executor) {
	if e.startRollback {
		for _, p := range slices.Backward(started) {
			kind := KindClient
			if _, ok := p.(AdvertisingHost); ok {
				kind = KindHost
			}
			if err := e.stopParticipant(kind, p, listener); err != nil {
				logging.Warn("Rollback stop failed", zap.Error(err))
			}
		}
	}
	executor.Abort()
}

// Stop stops every participant, clients first, then tears down the listener
// and releases the channel. Participant failures are logged and never prevent
// the channel from being released.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopLocked()
}

func (e *Engine) stopLocked() error {
	if !e.running {
		return fmt.Errorf("stop: %w", ErrInvalidState)
	}

	var errs error
	for _, c := range e.reg.clients {
		errs = multierr.Append(errs, e.stopParticipant(KindClient, c, e.listener))
	}
	for _, h := range e.reg.hosts {
		errs = multierr.Append(errs, e.stopParticipant(KindHost, h, e.listener))
	}

	e.executor.Abort()
	e.executor = nil
	e.listener = nil
	e.running = false
	metrics.EngineRunning.Set(0)

	if errs != nil {
		logging.Warn("Discovery engine stopped with participant failures",
			zap.Int("failures", len(multierr.Errors(errs))),
			zap.Error(errs),
		)
		return nil
	}
	logging.Info("Discovery engine stopped")
	return nil
}

// AddParticipant registers p and, when suppress-self-discovery is enabled,
// propagates host identifiers: a new host is ignored by every existing client
// and a new client ignores every existing host. When running, p is started
// immediately; a start failure is returned but p stays registered.
//
// A value implementing both AdvertisingHost and DiscoveryClient is registered
// as a host.
func (e *Engine) AddParticipant(p Participant) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var kind Kind
	switch v := p.(type) {
	case AdvertisingHost:
		kind = KindHost
		e.reg.addHost(v)
		if e.suppressSelf {
			id := v.Identifier()
			for _, c := range e.reg.clients {
				c.IgnoreIdentifier(id)
			}
		}
	case DiscoveryClient:
		kind = KindClient
		e.reg.addClient(v)
		if e.suppressSelf {
			for _, id := range e.reg.hostIdentifiers() {
				v.IgnoreIdentifier(id)
			}
		}
	default:
		return fmt.Errorf("add participant %T: %w", p, ErrUnknownParticipant)
	}

	e.updateParticipantGauges()
	logging.LogParticipant(kind.String(), identifierOf(p), "registered", nil)

	if !e.running {
		return nil
	}
	// Hosts added to a running engine keep their current boot id.
	return e.startParticipant(kind, p, e.listener)
}

// RemoveParticipant stops p when running and removes its first registration.
// A stop failure is logged and does not prevent removal.
func (e *Engine) RemoveParticipant(p Participant) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	kind, ok := e.reg.find(p)
	if !ok {
		return fmt.Errorf("remove participant: %w", ErrNotFound)
	}

	if e.running {
		if err := e.stopParticipant(kind, p, e.listener); err != nil {
			logging.Warn("Participant stop failed during removal", zap.Error(err))
		}
	}

	e.reg.remove(kind, p)
	e.updateParticipantGauges()
	logging.LogParticipant(kind.String(), identifierOf(p), "removed", nil)
	return nil
}

// Close stops the engine if running and drops every registered participant.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if e.running {
		err = e.stopLocked()
	}
	e.reg.clear()
	e.updateParticipantGauges()
	return err
}

// IsRunning reports whether the engine holds the shared channel
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// SetSuppressSelfDiscovery toggles identifier propagation. It only affects
// participants registered afterwards.
func (e *Engine) SetSuppressSelfDiscovery(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.suppressSelf = enabled
}

// SuppressSelfDiscovery returns the current propagation setting
func (e *Engine) SuppressSelfDiscovery() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.suppressSelf
}

// Status is a point-in-time summary of the engine
type Status struct {
	Running     bool     `json:"running"`
	Hosts       int      `json:"hosts"`
	Clients     int      `json:"clients"`
	Identifiers []string `json:"identifiers"`
}

// Status returns a summary of the engine
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Running:     e.running,
		Hosts:       len(e.reg.hosts),
		Clients:     len(e.reg.clients),
		Identifiers: e.reg.hostIdentifiers(),
	}
}

func (e *Engine) startParticipant(kind Kind, p Participant, l *channel.Listener) error {
	if err := p.Start(l); err != nil {
		perr := &ParticipantError{Kind: kind, Op: OpStart, Identifier: identifierOf(p), Err: err}
		metrics.ParticipantFailuresTotal.WithLabelValues(kind.String(), OpStart).Inc()
		logging.LogParticipant(kind.String(), perr.Identifier, OpStart, err)
		return perr
	}
	logging.LogParticipant(kind.String(), identifierOf(p), "started", nil)
	return nil
}

func (e *Engine) stopParticipant(kind Kind, p Participant, l *channel.Listener) error {
	if err := p.Stop(l); err != nil {
		perr := &ParticipantError{Kind: kind, Op: OpStop, Identifier: identifierOf(p), Err: err}
		metrics.ParticipantFailuresTotal.WithLabelValues(kind.String(), OpStop).Inc()
		logging.LogParticipant(kind.String(), perr.Identifier, OpStop, err)
		return perr
	}
	logging.LogParticipant(kind.String(), identifierOf(p), "stopped", nil)
	return nil
}

func (e *Engine) updateParticipantGauges() {
	metrics.Participants.WithLabelValues(metrics.KindHost).Set(float64(len(e.reg.hosts)))
	metrics.Participants.WithLabelValues(metrics.KindClient).Set(float64(len(e.reg.clients)))
}

func identifierOf(p Participant) string {
	if h, ok := p.(AdvertisingHost); ok {
		return h.Identifier()
	}
	return ""
}
