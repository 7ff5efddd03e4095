package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jose-valero/queue-display-bot/internal/infra/logger"
)

// NotifyChannel es el canal de LISTEN/NOTIFY que avisa "cola cambió"; el payload es el queue id.
const NotifyChannel = "queue_display"

// Notify publica un cambio de cola para cualquier bot que esté escuchando.
func Notify(ctx context.Context, db *sql.DB, queueID string) error {
	_, err := db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, queueID)
	return err
}

// Listener mantiene una conexión dedicada con LISTEN y reconecta si se cae.
type Listener struct {
	url     string
	log     logger.Logger
	backoff time.Duration
}

func NewListener(url string, log logger.Logger) *Listener {
	return &Listener{url: url, log: log, backoff: 2 * time.Second}
}

// Run bloquea hasta que ctx se cancele. handle recibe el queue id de cada notificación.
func (l *Listener) Run(ctx context.Context, handle func(queueID string)) error {
	for {
		err := l.listen(ctx, handle)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			l.log.Warn("[listener] connection lost", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.backoff):
		}
	}
}

func (l *Listener) listen(ctx context.Context, handle func(string)) error {
	conn, err := pgx.Connect(ctx, l.url)
	if err != nil {
		return fmt.Errorf("listen connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{NotifyChannel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if n.Payload != "" {
			handle(n.Payload)
		}
	}
}
