package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/dnldd/breakout/shared"
	"github.com/rs/zerolog"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
	// maxWorkers is the maximum number of concurrent deliveries.
	maxWorkers = 4
	// sendTimeout is the maximum duration of a single delivery.
	sendTimeout = time.Second * 15
)

// Sender defines the requirements for delivering a notification message.
type Sender interface {
	// Send delivers the provided message.
	Send(ctx context.Context, message string) error
}

// LogSender delivers notification messages to the application log.
type LogSender struct {
	Logger *zerolog.Logger
}

// Send logs the provided message.
func (s *LogSender) Send(_ context.Context, message string) error {
	s.Logger.Info().Str("notification", message).Send()
	return nil
}

// ManagerConfig represents the notification manager configuration.
type ManagerConfig struct {
	// Sender delivers queued messages.
	Sender Sender
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Manager queues notifications and delivers them in the background so callers
// never wait on delivery.
type Manager struct {
	cfg      *ManagerConfig
	messages chan string
	workers  chan struct{}
}

// Ensure the notification manager implements the Notifier interface.
var _ shared.Notifier = (*Manager)(nil)

// NewManager initializes a new notification manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	if cfg.Sender == nil {
		return nil, fmt.Errorf("notification sender cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("notification logger cannot be nil")
	}

	return &Manager{
		cfg:      cfg,
		messages: make(chan string, bufferSize),
		workers:  make(chan struct{}, maxWorkers),
	}, nil
}

// Notify queues the provided message for delivery. Messages are dropped when
// the queue is at capacity.
func (m *Manager) Notify(message string) {
	select {
	case m.messages <- message:
		// do nothing.
	default:
		m.cfg.Logger.Error().Msgf("notification channel at capacity: %d/%d",
			len(m.messages), bufferSize)
	}
}

// deliver sends the provided message, logging delivery failures.
func (m *Manager) deliver(ctx context.Context, message string) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	err := m.cfg.Sender.Send(sendCtx, message)
	if err != nil {
		m.cfg.Logger.Error().Err(err).Msg("delivering notification")
	}
}

// drain delivers the messages still queued.
func (m *Manager) drain(ctx context.Context) {
	for {
		select {
		case message := <-m.messages:
			m.deliver(ctx, message)
		default:
			return
		}
	}
}

// Run manages the lifecycle processes of the notification manager. Messages queued
// before the context is cancelled are delivered before Run returns.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// Wait for in-flight deliveries to complete.
			for range maxWorkers {
				m.workers <- struct{}{}
			}
			m.drain(context.WithoutCancel(ctx))
			return
		case message := <-m.messages:
			m.workers <- struct{}{}
			go func(message string) {
				m.deliver(context.WithoutCancel(ctx), message)
				<-m.workers
			}(message)
		}
	}
}
