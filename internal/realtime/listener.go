package realtime

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
)

// Listener relays Postgres NOTIFY payloads from one channel into a Publisher.
// It holds its own connection because LISTEN does not survive a pooled connection.
type Listener struct {
	dsn     string
	channel string
	retry   time.Duration
	out     Publisher
}

// NewListener creates a listener; retry is the pause before reconnecting
func NewListener(dsn, channel string, retry time.Duration, out Publisher) *Listener {
	if retry <= 0 {
		retry = 5 * time.Second
	}
	return &Listener{dsn: dsn, channel: channel, retry: retry, out: out}
}

// Run listens until ctx is cancelled, reconnecting after connection loss
func (l *Listener) Run(ctx context.Context) {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			log.Println("🛑 Realtime: listener stopped")
			return
		}
		log.Printf("⚠️ Realtime: %v, reconnecting in %s", err, l.retry)

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.retry):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("LISTEN %s failed: %w", l.channel, err)
	}
	log.Printf("✅ Realtime: listening on '%s'", l.channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait failed: %w", err)
		}
		change, err := DecodeChange(n.Payload)
		if err != nil {
			log.Printf("⚠️ Realtime: %v", err)
			continue
		}
		l.out.Publish(change)
	}
}
