package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ContactScanner/internal/config"
	"ContactScanner/internal/domain"
	"ContactScanner/internal/humanize"
	"ContactScanner/internal/ports"
)

// MessageBoxSender delivers a message through the profile page's compose
// box. The typing cadence comes from the simulator so the keystroke timing
// matches the rest of the session.
type MessageBoxSender struct {
	driver    ports.BrowserDriver
	selectors config.SelectorConfig
	simulator *humanize.Simulator
	logger    *slog.Logger
}

var _ ports.MessageSender = (*MessageBoxSender)(nil)

// NewMessageBoxSender wires the driver, selector table, and simulator.
func NewMessageBoxSender(driver ports.BrowserDriver, selectors config.SelectorConfig, simulator *humanize.Simulator, logger *slog.Logger) *MessageBoxSender {
	return &MessageBoxSender{driver: driver, selectors: selectors, simulator: simulator, logger: logger}
}

// Send opens the compose box on the already-open profile page, types the
// message with humanized cadence, and submits it.
func (s *MessageBoxSender) Send(ctx context.Context, contact domain.Contact, message string) error {
	if err := s.driver.Click(ctx, s.selectors.MessageButton); err != nil {
		return fmt.Errorf("open compose box: %w", err)
	}
	s.pause(ctx, time.Second, 3*time.Second)

	cadence := s.simulator.TypingDelays(message)
	if err := s.driver.Type(ctx, s.selectors.MessageBox, message, cadence); err != nil {
		return fmt.Errorf("type message: %w", err)
	}

	// rereading before hitting send
	s.pause(ctx, 2*time.Second, 5*time.Second)

	if err := s.driver.Click(ctx, s.selectors.SendButton); err != nil {
		return fmt.Errorf("submit message: %w", err)
	}
	s.simulator.RecordAction()
	if s.logger != nil {
		s.logger.Info("message sent", "contact", contact.ID, "chars", len(message))
	}
	return nil
}

func (s *MessageBoxSender) pause(ctx context.Context, min, max time.Duration) {
	t := time.NewTimer(s.simulator.Delay(min, max))
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
