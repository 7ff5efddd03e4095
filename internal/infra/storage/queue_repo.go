package storage

import (
	"context"
	"database/sql"
	"errors"

	pq "github.com/lib/pq"

	"github.com/jose-valero/queue-display-bot/internal/domain"
)

type QueueRepo struct{ db *sql.DB }

func NewQueueRepo(db *sql.DB) *QueueRepo { return &QueueRepo{db: db} }

func (r *QueueRepo) Get(ctx context.Context, queueID string) (domain.Queue, error) {
	var (
		q      domain.Queue
		kind   int
		target sql.NullString
		max    sql.NullInt64
		color  sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
SELECT queue_id, guild_id, name, kind, is_locked, max_members, color, header,
       target_channel_id, grace_period, hide_button
  FROM queues
 WHERE queue_id = $1
`, queueID).Scan(
		&q.ID, &q.GuildID, &q.Name, &kind, &q.Locked, &max, &color, &q.Header,
		&target, &q.GracePeriod, &q.HideControl,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Queue{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Queue{}, err
	}
	q.Kind = domain.ChannelKind(kind)
	q.TargetChannelID = target.String
	if max.Valid {
		v := int(max.Int64)
		q.MaxMembers = &v
	}
	if color.Valid {
		v := int(color.Int64)
		q.Color = &v
	}
	return q, nil
}

// ListIDs devuelve todas las colas del servidor ("" = todas).
func (r *QueueRepo) ListIDs(ctx context.Context, guildID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT queue_id
  FROM queues
 WHERE $1 = '' OR guild_id = $1
 ORDER BY queue_id
`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Members: prioridad primero, después por display_time y orden de inserción.
func (r *QueueRepo) Members(ctx context.Context, queueID string) ([]domain.QueueMember, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT guild_id, queue_id, member_id, display_time, is_priority, COALESCE(personal_message, '')
  FROM queue_members
 WHERE queue_id = $1
 ORDER BY is_priority DESC, display_time ASC, id ASC
`, queueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.QueueMember
	for rows.Next() {
		var m domain.QueueMember
		if err := rows.Scan(&m.GuildID, &m.QueueID, &m.MemberID, &m.DisplayTime, &m.Priority, &m.Note); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *QueueRepo) ClearTarget(ctx context.Context, queueID string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE queues SET target_channel_id = NULL WHERE queue_id = $1
`, queueID)
	return err
}

func (r *QueueRepo) RemoveMembers(ctx context.Context, guildID, queueID string, memberIDs []string) (int64, error) {
	if len(memberIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `
DELETE FROM queue_members
 WHERE guild_id = $1 AND queue_id = $2 AND member_id = ANY($3)
`, guildID, queueID, pq.Array(memberIDs))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Toggle: si el miembro está lo saca, si no lo agrega. joined indica el estado final.
func (r *QueueRepo) Toggle(ctx context.Context, guildID, queueID, memberID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM queue_members
 WHERE guild_id = $1 AND queue_id = $2 AND member_id = $3
`, guildID, queueID, memberID)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO queue_members (guild_id, queue_id, member_id)
VALUES ($1,$2,$3)
ON CONFLICT (queue_id, member_id) DO NOTHING
`, guildID, queueID, memberID)
	if err != nil {
		return false, err
	}
	return true, nil
}
