package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/alarm-blinker/internal/clock"
	"github.com/oshokin/alarm-blinker/internal/controller"
	domain "github.com/oshokin/alarm-blinker/internal/domain/alarm"
	"github.com/oshokin/alarm-blinker/internal/logger"
	"github.com/oshokin/alarm-blinker/internal/metrics"
)

// service adapts the controller to the transports and drives it from the clock.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// controller is the alarm state machine.
	controller *controller.Controller
	// clock supplies the timestamps fed to the controller.
	clock clock.Source
	// metrics records accepted and rejected commands.
	metrics *metrics.Metrics

	// tickMu pairs every clock read with the controller call consuming it,
	// so the controller sees timestamps in the order they were taken.
	tickMu sync.Mutex

	// mu protects lastActor.
	mu sync.RWMutex
	// lastActor is who issued the last accepted command.
	lastActor *domain.Actor
}

// newService creates a service on top of an existing controller.
func newService(ctrl *controller.Controller, source clock.Source, m *metrics.Metrics) *service {
	return &service{
		controller: ctrl,
		clock:      source,
		metrics:    m,
	}
}

// Command parses value and arms or disarms the alarm.
// Unknown values are rejected without touching the controller.
func (s *service) Command(ctx context.Context, actor *domain.Actor, value string) (*domain.Status, error) {
	cmd, err := domain.ParseCommand(value)

	if s.metrics != nil {
		s.metrics.CountCommand(cmd, err)
	}

	if err != nil {
		logger.WarnKV(ctx, "Alarm command rejected", "value", value, "actor", actor.String())

		return nil, fmt.Errorf("parse command: %w", err)
	}

	switch cmd {
	case domain.Arm:
		s.tickMu.Lock()
		s.controller.Arm(s.clock.Now())
		s.tickMu.Unlock()
	case domain.Disarm:
		s.controller.Disarm()
	}

	s.mu.Lock()
	s.lastActor = actor.Clone()
	s.mu.Unlock()

	logger.InfoKV(ctx, "Alarm command accepted", "command", cmd.String(), "actor", actor.String())

	return s.GetAlarmState(ctx), nil
}

// GetAlarmState returns the current alarm status.
func (s *service) GetAlarmState(_ context.Context) *domain.Status {
	s.tickMu.Lock()
	status := s.controller.Status(s.clock.Now())
	s.tickMu.Unlock()

	s.mu.RLock()
	status.LastActor = s.lastActor.Clone()
	s.mu.RUnlock()

	return &status
}

// run polls the controller every interval until ctx is canceled,
// then disarms it so the output is left off. Cancel ctx only after the
// transports stopped accepting commands.
func (s *service) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.InfoKV(ctx, "Alarm loop started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			s.controller.Disarm()
			logger.Info(ctx, "Alarm loop stopped")

			return
		case <-ticker.C:
			s.poll()
		}
	}
}

// poll advances the controller to the current time.
func (s *service) poll() {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.controller.Poll(s.clock.Now())
}

// logEvents returns a controller listener that reports transitions.
func logEvents(ctx context.Context) controller.Listener {
	return func(event controller.Event) {
		switch event.Kind {
		case controller.EventArmed:
			logger.Info(ctx, "Alarm armed")
		case controller.EventDisarmed:
			logger.Info(ctx, "Alarm disarmed")
		case controller.EventExpired:
			logger.InfoKV(ctx, "Alarm expired", "elapsed", event.Elapsed.String())
		case controller.EventOutputChanged:
			logger.DebugKV(ctx, "Output changed", "output", event.Output.String(), "elapsed", event.Elapsed.String())
		}
	}
}
