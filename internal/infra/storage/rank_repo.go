package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	pq "github.com/lib/pq"

	"github.com/jose-valero/queue-display-bot/internal/domain"
)

type RankRepo struct{ db *sql.DB }

func NewRankRepo(db *sql.DB) *RankRepo { return &RankRepo{db: db} }

const rankCols = `guild_id, member_id, account_name, account_id, cached_score, cached_unranked, updated_at`

func scanRank(sc interface{ Scan(...any) error }) (RankSetting, error) {
	var s RankSetting
	err := sc.Scan(&s.GuildID, &s.MemberID, &s.AccountName, &s.AccountID, &s.CachedScore, &s.CachedUnranked, &s.UpdatedAt)
	return s, err
}

func (r *RankRepo) Get(ctx context.Context, guildID, memberID string) (RankSetting, error) {
	s, err := scanRank(r.db.QueryRowContext(ctx, `
SELECT `+rankCols+`
  FROM rank_settings
 WHERE guild_id = $1 AND member_id = $2
`, guildID, memberID))
	if errors.Is(err, sql.ErrNoRows) {
		return RankSetting{}, domain.ErrNotFound
	}
	return s, err
}

// GetMany trae en una sola query las anotaciones de los miembros pedidos.
// Los que no tienen fila no aparecen en el mapa.
func (r *RankRepo) GetMany(ctx context.Context, guildID string, memberIDs []string) (map[string]domain.RankAnnotation, error) {
	out := map[string]domain.RankAnnotation{}
	if len(memberIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+rankCols+`
  FROM rank_settings
 WHERE guild_id = $1 AND member_id = ANY($2)
`, guildID, pq.Array(memberIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		s, err := scanRank(rows)
		if err != nil {
			return nil, err
		}
		out[s.MemberID] = s.Annotation()
	}
	return out, rows.Err()
}

// Annotation: Resolved sólo si hay una cuenta vinculada.
func (s RankSetting) Annotation() domain.RankAnnotation {
	return domain.RankAnnotation{
		Score:    s.CachedScore,
		Unranked: s.CachedUnranked,
		Resolved: s.AccountID != nil && *s.AccountID != "",
	}
}

// SetAccount vincula la cuenta y resetea el cache.
func (r *RankRepo) SetAccount(ctx context.Context, guildID, memberID, accountName, accountID string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO rank_settings (guild_id, member_id, account_name, account_id, cached_score, cached_unranked, updated_at)
VALUES ($1,$2,$3,$4,NULL,FALSE,now())
ON CONFLICT (guild_id, member_id) DO UPDATE SET
  account_name    = EXCLUDED.account_name,
  account_id      = EXCLUDED.account_id,
  cached_score    = NULL,
  cached_unranked = FALSE,
  updated_at      = now()
`, guildID, memberID, accountName, accountID)
	return err
}

func (r *RankRepo) UpdateRank(ctx context.Context, guildID, memberID string, score *int, unranked bool) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE rank_settings
   SET cached_score = $3, cached_unranked = $4, updated_at = now()
 WHERE guild_id = $1 AND member_id = $2
`, guildID, memberID, score, unranked)
	return err
}

// Touch marca la fila como consultada sin cambiar el rango cacheado.
func (r *RankRepo) Touch(ctx context.Context, guildID, memberID string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE rank_settings
   SET updated_at = now()
 WHERE guild_id = $1 AND member_id = $2
`, guildID, memberID)
	return err
}

func (r *RankRepo) Clear(ctx context.Context, guildID, memberID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM rank_settings
 WHERE guild_id = $1 AND member_id = $2
`, guildID, memberID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListLinked devuelve las filas con cuenta vinculada, las más viejas primero.
func (r *RankRepo) ListLinked(ctx context.Context, limit int) ([]RankSetting, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+rankCols+`
  FROM rank_settings
 WHERE account_id IS NOT NULL
 ORDER BY updated_at ASC
 LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RankSetting
	for rows.Next() {
		s, err := scanRank(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ExpireStale borra el score cacheado que no se refrescó dentro de maxAge.
func (r *RankRepo) ExpireStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE rank_settings
   SET cached_score = NULL, cached_unranked = FALSE
 WHERE cached_score IS NOT NULL
   AND updated_at < now() - $1::interval
`, durToInterval(maxAge))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
