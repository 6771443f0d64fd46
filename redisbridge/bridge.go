// Package redisbridge carries statechanged notifications between processes
// over Redis pub/sub, so sibling windows can observe each other's machines.
package redisbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/librescoot/viewfsm"
)

// EventRemoteStateChanged is dispatched on the relay target for every
// message received from another process
const EventRemoteStateChanged = "remotestatechanged"

// Message is the JSON payload published for each transition
type Message struct {
	Origin     string    `json:"origin"`
	Controller string    `json:"controller"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Event      string    `json:"event"`
	At         time.Time `json:"at"`
}

// Bridge publishes and relays state changes on one Redis channel
type Bridge struct {
	client  *backend.Client
	channel string
	origin  string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Bridge
type Option func(*Bridge)

// WithChannel sets the pub/sub channel
func WithChannel(channel string) Option {
	return func(b *Bridge) {
		b.channel = channel
	}
}

// WithOrigin sets the identifier stamped on published messages. Messages
// carrying the bridge's own origin are not relayed back.
func WithOrigin(origin string) Option {
	return func(b *Bridge) {
		b.origin = origin
	}
}

// WithPublishTimeout bounds each publish issued from an element listener
func WithPublishTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		b.timeout = d
	}
}

// WithLogger sets the bridge's logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a bridge over an existing client
func New(client *backend.Client, opts ...Option) *Bridge {
	b := &Bridge{
		client:  client,
		channel: "viewfsm:statechanged",
		origin:  uuid.NewString(),
		timeout: 2 * time.Second,
		logger:  viewfsm.Logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Origin returns the bridge's origin identifier
func (b *Bridge) Origin() string {
	return b.origin
}

// Publish sends one state change
func (b *Bridge) Publish(ctx context.Context, sc viewfsm.StateChanged) error {
	data, err := json.Marshal(Message{
		Origin:     b.origin,
		Controller: sc.Controller,
		From:       string(sc.From),
		To:         string(sc.To),
		Event:      string(sc.Event),
		At:         time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", b.channel, err)
	}
	return nil
}

// Attach publishes every EventStateChanged dispatched on target until the
// returned function is called. Publishing is fire-and-forget: failures are
// logged, never returned to the machine.
func (b *Bridge) Attach(target viewfsm.Target) (detach func()) {
	return target.AddEventListener(viewfsm.EventStateChanged, func(detail any) {
		sc, ok := detail.(viewfsm.StateChanged)
		if !ok {
			b.logger.Warn("unexpected statechanged detail", "type", fmt.Sprintf("%T", detail))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		if err := b.Publish(ctx, sc); err != nil {
			b.logger.Error("publish failed", "controller", sc.Controller, "error", err)
		}
	})
}

// Relay subscribes to the channel and dispatches each message from another
// origin on target as EventRemoteStateChanged with a Message detail. The
// subscription is live when Relay returns; stop ends it.
func (b *Bridge) Relay(ctx context.Context, target viewfsm.Publisher) (stop func() error, err error) {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	ch := sub.Channel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ch {
			var m Message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				b.logger.Warn("dropping malformed message", "channel", msg.Channel, "error", err)
				continue
			}
			if m.Origin == b.origin {
				continue
			}
			target.DispatchEvent(EventRemoteStateChanged, m)
		}
	}()

	var once sync.Once
	var closeErr error
	return func() error {
		once.Do(func() {
			closeErr = sub.Close()
			<-done
		})
		return closeErr
	}, nil
}
