package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jose-valero/queue-display-bot/internal/domain"
	"github.com/jose-valero/queue-display-bot/internal/infra/logger"
)

const refreshBatch = 200

// Lo implementa internal/infra/storage.QueueRepo
type QueueLister interface {
	ListIDs(ctx context.Context, guildID string) ([]string, error)
}

// RankService vincula cuentas externas y mantiene el cache de ranks.
type RankService struct {
	api    RankingAPI
	ranks  RankRepo
	queues QueueLister
	pub    Publisher
	log    logger.Logger
}

func NewRankService(api RankingAPI, ranks RankRepo, queues QueueLister, pub Publisher, log logger.Logger) *RankService {
	if log == nil {
		log = logger.Nop()
	}
	return &RankService{api: api, ranks: ranks, queues: queues, pub: pub, log: log}
}

func (s *RankService) Link(ctx context.Context, guildID, memberID, accountName string) (string, error) {
	acc, err := s.api.LookupAccount(ctx, accountName)
	if errors.Is(err, domain.ErrNotFound) {
		return "❌ No account named `" + accountName + "` was found.", nil
	}
	if err != nil {
		return "", err
	}
	if err := s.ranks.SetAccount(ctx, guildID, memberID, acc.Name, acc.ID); err != nil {
		return "", err
	}

	// primer rank al toque; si falla queda para el próximo RefreshAll
	if snap, err := s.api.Rank(ctx, acc.ID); err == nil {
		if err := s.ranks.UpdateRank(ctx, guildID, memberID, snap.Score, snap.Unranked); err != nil {
			s.log.Warn("[rank.link] cache", "guild_id", guildID, "error", err)
		}
	} else {
		s.log.Debug("[rank.link] first lookup", "account_id", acc.ID, "error", err)
	}
	s.refreshGuild(ctx, guildID)

	return "✅ Linked to **" + acc.Name + "**.", nil
}

func (s *RankService) Clear(ctx context.Context, guildID, memberID string) (string, error) {
	ok, err := s.ranks.Clear(ctx, guildID, memberID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "ℹ️ You had no linked account.", nil
	}
	s.refreshGuild(ctx, guildID)
	return "✅ Account unlinked.", nil
}

func (s *RankService) Show(ctx context.Context, guildID, memberID string) (string, error) {
	rs, err := s.ranks.Get(ctx, guildID, memberID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && rs.AccountName == nil) {
		return "ℹ️ No linked account. Use `/rankname set <your-account-name>`.", nil
	}
	if err != nil {
		return "", err
	}
	a := rs.Annotation()
	score := "unknown"
	if a.Score != nil {
		score = fmt.Sprint(*a.Score)
	}
	return fmt.Sprintf("**Account:** `%s`\n**Score:** %s\n**Updated:** <t:%d:R>", *rs.AccountName, score, rs.UpdatedAt.Unix()), nil
}

// RefreshAll recorre las cuentas vinculadas (las más viejas primero) y actualiza el cache.
// Un error de la API deja el valor cacheado como estaba.
func (s *RankService) RefreshAll(ctx context.Context) (int, error) {
	linked, err := s.ranks.ListLinked(ctx, refreshBatch)
	if err != nil {
		return 0, err
	}

	updated := 0
	guilds := map[string]bool{}
	for _, rs := range linked {
		if ctx.Err() != nil {
			break
		}
		if rs.AccountID == nil {
			continue
		}
		snap, err := s.api.Rank(ctx, *rs.AccountID)
		if err != nil {
			s.log.Debug("[rank.refresh] lookup", "member_id", rs.MemberID, "error", err)
			continue
		}
		if sameRank(rs.CachedScore, rs.CachedUnranked, snap) {
			// igual se avanza updated_at: la fila pasa al final del próximo
			// batch y el janitor no la expira
			if err := s.ranks.Touch(ctx, rs.GuildID, rs.MemberID); err != nil {
				s.log.Warn("[rank.refresh] touch", "member_id", rs.MemberID, "error", err)
			}
			continue
		}
		if err := s.ranks.UpdateRank(ctx, rs.GuildID, rs.MemberID, snap.Score, snap.Unranked); err != nil {
			s.log.Warn("[rank.refresh] update", "member_id", rs.MemberID, "error", err)
			continue
		}
		updated++
		guilds[rs.GuildID] = true
	}

	for g := range guilds {
		s.refreshGuild(ctx, g)
	}
	return updated, nil
}

func (s *RankService) refreshGuild(ctx context.Context, guildID string) {
	if s.queues == nil || s.pub == nil {
		return
	}
	ids, err := s.queues.ListIDs(ctx, guildID)
	if err != nil {
		s.log.Warn("[rank] list queues", "guild_id", guildID, "error", err)
		return
	}
	for _, id := range ids {
		if err := s.pub.Publish(ctx, id); err != nil {
			s.log.Warn("[rank] publish", "queue_id", id, "error", err)
		}
	}
}

func sameRank(score *int, unranked bool, snap domain.RankSnapshot) bool {
	if unranked != snap.Unranked {
		return false
	}
	if score == nil || snap.Score == nil {
		return score == nil && snap.Score == nil
	}
	return *score == *snap.Score
}
