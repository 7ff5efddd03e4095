package service

import (
	"context"
	"errors"

	"github.com/jose-valero/queue-display-bot/internal/domain"
	"github.com/jose-valero/queue-display-bot/internal/infra/logger"
)

// ValidationService limpia lo que quedó inválido del lado de Discord:
// miembros que se fueron del servidor y displays en canales borrados.
type ValidationService struct {
	platform Platform
	queues   QueueRepo
	displays DisplayRepo
	pub      Publisher
	log      logger.Logger
}

func NewValidationService(p Platform, queues QueueRepo, displays DisplayRepo, pub Publisher, log logger.Logger) *ValidationService {
	if log == nil {
		log = logger.Nop()
	}
	return &ValidationService{platform: p, queues: queues, displays: displays, pub: pub, log: log}
}

// ValidateQueue publica un refresh sólo si cambió algo.
func (v *ValidationService) ValidateQueue(ctx context.Context, q domain.Queue) error {
	changed := false

	members, err := v.queues.Members(ctx, q.ID)
	if err != nil {
		return err
	}
	var gone []string
	for _, m := range members {
		if _, err := v.platform.MemberName(ctx, q.GuildID, m.MemberID); errors.Is(err, domain.ErrSurfaceGone) {
			gone = append(gone, m.MemberID)
		}
	}
	if len(gone) > 0 {
		n, err := v.queues.RemoveMembers(ctx, q.GuildID, q.ID, gone)
		if err != nil {
			return err
		}
		changed = changed || n > 0
	}

	targets, err := v.displays.ListByQueue(ctx, q.ID)
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, t := range targets {
		if seen[t.ChannelID] {
			continue
		}
		seen[t.ChannelID] = true
		if _, err := v.platform.Channel(ctx, t.ChannelID); errors.Is(err, domain.ErrSurfaceGone) {
			n, err := v.displays.Delete(ctx, q.ID, t.ChannelID)
			if err != nil {
				return err
			}
			changed = changed || n > 0
		}
	}

	if !changed || v.pub == nil {
		return nil
	}
	v.log.Info("[validate] queue changed", "queue_id", q.ID, "members_removed", len(gone))
	return v.pub.Publish(ctx, q.ID)
}
