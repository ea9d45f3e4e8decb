// Package startup brings up the app's external connections in dependency order.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
)

// Component is one connection or service the app needs before it can serve.
type Component interface {
	Name() string
	DependsOn() []string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type Status int

const (
	StatusPending Status = iota
	StatusStarted
	StatusStopped
	StatusFailed
)

// Step adapts plain functions into a Component. A nil Stop is a no-op.
type Step struct {
	StepName string
	Needs    []string
	StartFn  func(ctx context.Context) error
	StopFn   func(ctx context.Context) error
}

func (s Step) Name() string        { return s.StepName }
func (s Step) DependsOn() []string { return s.Needs }

func (s Step) Start(ctx context.Context) error {
	if s.StartFn == nil {
		return nil
	}
	return s.StartFn(ctx)
}

func (s Step) Stop(ctx context.Context) error {
	if s.StopFn == nil {
		return nil
	}
	return s.StopFn(ctx)
}

// Sequence starts components with a fibonacci backoff between attempts.
type Sequence struct {
	logger      ectologger.Logger
	components  map[string]Component
	order       []string
	statuses    map[string]Status
	started     []string
	maxAttempts int
	backoffUnit time.Duration
}

func NewSequence(logger ectologger.Logger, maxAttempts int) *Sequence {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Sequence{
		logger:      logger,
		components:  make(map[string]Component),
		statuses:    make(map[string]Status),
		maxAttempts: maxAttempts,
		backoffUnit: time.Second,
	}
}

// WithBackoffUnit scales the wait between attempts.
func (s *Sequence) WithBackoffUnit(unit time.Duration) *Sequence {
	s.backoffUnit = unit
	return s
}

func (s *Sequence) Add(component Component) {
	if _, ok := s.components[component.Name()]; !ok {
		s.order = append(s.order, component.Name())
	}
	s.components[component.Name()] = component
}

func (s *Sequence) Status(name string) Status {
	return s.statuses[name]
}

// Start brings every component up. Components already started are not restarted on retry.
func (s *Sequence) Start(ctx context.Context) error {
	var lastErr error

	a, b := 1, 1
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		s.logger.WithContext(ctx).WithField("attempt", attempt).Infof("Beginning startup attempt %d", attempt)

		lastErr = s.startAll(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == s.maxAttempts {
			break
		}

		wait := time.Duration(a) * s.backoffUnit
		s.logger.WithContext(ctx).Warnf("Retrying startup in %s (attempt %d/%d)", wait, attempt, s.maxAttempts)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		a, b = b, a+b
	}

	return fmt.Errorf("startup failed after %d attempts: %w", s.maxAttempts, lastErr)
}

func (s *Sequence) startAll(ctx context.Context) error {
	for _, name := range s.order {
		if err := s.start(ctx, name, map[string]bool{}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sequence) start(ctx context.Context, name string, visiting map[string]bool) error {
	if s.statuses[name] == StatusStarted {
		return nil
	}

	component, ok := s.components[name]
	if !ok {
		return fmt.Errorf("unknown startup component %q", name)
	}
	if visiting[name] {
		return fmt.Errorf("startup component %q depends on itself", name)
	}
	visiting[name] = true

	for _, dep := range component.DependsOn() {
		if err := s.start(ctx, dep, visiting); err != nil {
			return err
		}
	}

	logger := s.logger.WithContext(ctx).WithField("component", name)
	logger.Infof("Starting '%s'", name)

	if err := component.Start(ctx); err != nil {
		s.statuses[name] = StatusFailed
		logger.WithError(err).Errorf("Failed to start '%s'", name)
		return fmt.Errorf("failed to start %s: %w", name, err)
	}

	s.statuses[name] = StatusStarted
	s.started = append(s.started, name)
	return nil
}

// Stop shuts components down in reverse start order and returns the first error.
func (s *Sequence) Stop(ctx context.Context) error {
	var firstErr error
	for i := len(s.started) - 1; i >= 0; i-- {
		name := s.started[i]
		logger := s.logger.WithContext(ctx).WithField("component", name)

		if err := s.components[name].Stop(ctx); err != nil {
			logger.WithError(err).Errorf("Failed to stop '%s'", name)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		s.statuses[name] = StatusStopped
		logger.Infof("Stopped '%s'", name)
	}
	s.started = nil
	return firstErr
}
