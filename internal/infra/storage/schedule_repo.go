package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type ScheduleRepo struct{ db *sql.DB }

func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

func (r *ScheduleRepo) List(ctx context.Context, queueID string) ([]Schedule, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT queue_id, command, schedule, utc_offset
  FROM queue_schedules
 WHERE queue_id = $1
 ORDER BY id ASC
`, queueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		var s Schedule
		if err := rows.Scan(&s.QueueID, &s.Command, &s.Cron, &s.UTCOffset); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Summary arma el texto que va en la descripción del display; "" si no hay schedules.
func (r *ScheduleRepo) Summary(ctx context.Context, queueID string) (string, error) {
	list, err := r.List(ctx, queueID)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, s := range list {
		fmt.Fprintf(&b, "\nScheduled `%s`: `%s` (%s)", s.Command, s.Cron, utcLabel(s.UTCOffset))
	}
	return b.String(), nil
}

func utcLabel(offset int) string {
	switch {
	case offset > 0:
		return fmt.Sprintf("UTC+%d", offset)
	case offset < 0:
		return fmt.Sprintf("UTC%d", offset)
	default:
		return "UTC"
	}
}
