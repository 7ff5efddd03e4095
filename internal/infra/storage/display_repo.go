package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jose-valero/queue-display-bot/internal/domain"
)

// DisplayRepo guarda los bindings cola -> mensaje. Un mismo canal puede mostrar varias colas.
type DisplayRepo struct{ db *sql.DB }

func NewDisplayRepo(db *sql.DB) *DisplayRepo { return &DisplayRepo{db: db} }

const displayCols = `queue_id, display_channel_id, message_id, created_at`

func (r *DisplayRepo) ListByQueue(ctx context.Context, queueID string) ([]domain.DisplayTarget, error) {
	return r.list(ctx, `
SELECT `+displayCols+`
  FROM display_channels
 WHERE queue_id = $1
 ORDER BY id ASC
`, queueID)
}

func (r *DisplayRepo) ListByChannel(ctx context.Context, channelID string) ([]domain.DisplayTarget, error) {
	return r.list(ctx, `
SELECT `+displayCols+`
  FROM display_channels
 WHERE display_channel_id = $1
 ORDER BY id ASC
`, channelID)
}

func (r *DisplayRepo) GetByMessage(ctx context.Context, messageID string) (domain.DisplayTarget, error) {
	var t domain.DisplayTarget
	err := r.db.QueryRowContext(ctx, `
SELECT `+displayCols+`
  FROM display_channels
 WHERE message_id = $1
`, messageID).Scan(&t.QueueID, &t.ChannelID, &t.MessageID, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DisplayTarget{}, domain.ErrNotFound
	}
	return t, err
}

func (r *DisplayRepo) Insert(ctx context.Context, t domain.DisplayTarget) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO display_channels (queue_id, display_channel_id, message_id)
VALUES ($1,$2,$3)
ON CONFLICT (message_id) DO NOTHING
`, t.QueueID, t.ChannelID, t.MessageID)
	return err
}

// Delete borra los bindings de la cola en ese canal; channelID vacío borra todos.
func (r *DisplayRepo) Delete(ctx context.Context, queueID, channelID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM display_channels
 WHERE queue_id = $1
   AND ($2 = '' OR display_channel_id = $2)
`, queueID, channelID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// DeleteByMessage borra sólo el binding de ese mensaje.
func (r *DisplayRepo) DeleteByMessage(ctx context.Context, messageID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM display_channels
 WHERE message_id = $1
`, messageID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Dedupe deja sólo el binding más nuevo por (cola, canal).
func (r *DisplayRepo) Dedupe(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM display_channels d
 USING display_channels newer
 WHERE d.queue_id = newer.queue_id
   AND d.display_channel_id = newer.display_channel_id
   AND d.id < newer.id
`)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *DisplayRepo) list(ctx context.Context, query string, arg string) ([]domain.DisplayTarget, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DisplayTarget
	for rows.Next() {
		var t domain.DisplayTarget
		if err := rows.Scan(&t.QueueID, &t.ChannelID, &t.MessageID, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
