package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// ListenerConfig tunes the LISTEN/NOTIFY wakeup path.
type ListenerConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // Channel name to LISTEN on
	FallbackInterval time.Duration // How often to drain if notifications stall
	PingInterval     time.Duration
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		DatabaseURL:      "",
		NotifyChannel:    NotifyChannel,
		FallbackInterval: 30 * time.Second,
		PingInterval:     90 * time.Second,
	}
}

// Drainer is the piece of the worker the listener wakes up.
type Drainer interface {
	Drain(ctx context.Context)
}

// Listener wakes the relay on Postgres notifications so freshly inserted
// events publish immediately, with interval draining as the safety net.
type Listener struct {
	listener *pq.Listener
	drainer  Drainer
	cfg      ListenerConfig
}

func NewListener(drainer Drainer, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for notifications")

	return &Listener{
		listener: l,
		drainer:  drainer,
		cfg:      cfg,
	}, nil
}

func (l *Listener) Start(ctx context.Context) error {
	log.Info().
		Str("channel", l.cfg.NotifyChannel).
		Dur("ping_interval", l.cfg.PingInterval).
		Dur("fallback_interval", l.cfg.FallbackInterval).
		Msg("listener started")

	pingTicker := time.NewTicker(l.cfg.PingInterval)
	fallbackTicker := time.NewTicker(l.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return l.Close()

		case n := <-l.listener.Notify:
			if n != nil {
				log.Debug().Str("payload", n.Extra).Msg("outbox notification received")
			}
			l.drainer.Drain(ctx)

		case <-fallbackTicker.C:
			l.drainer.Drain(ctx)

		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("listener ping failed")
			}
		}
	}
}

func (l *Listener) Close() error {
	return l.listener.Close()
}
