package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jose-valero/queue-display-bot/internal/domain"
)

var (
	ErrQueueLocked = errors.New("queue is locked")
	ErrQueueFull   = errors.New("queue is full")
)

// QueueService maneja el botón joinLeave de los displays.
type QueueService struct {
	queues   QueueRepo
	displays DisplayRepo
	pub      Publisher
}

func NewQueueService(queues QueueRepo, displays DisplayRepo, pub Publisher) *QueueService {
	return &QueueService{queues: queues, displays: displays, pub: pub}
}

// ToggleFromMessage resuelve la cola por el mensaje clickeado y entra/sale al miembro.
func (s *QueueService) ToggleFromMessage(ctx context.Context, messageID, memberID string) (domain.Queue, bool, error) {
	t, err := s.displays.GetByMessage(ctx, messageID)
	if err != nil {
		return domain.Queue{}, false, err
	}
	q, err := s.queues.Get(ctx, t.QueueID)
	if err != nil {
		return domain.Queue{}, false, err
	}

	members, err := s.queues.Members(ctx, q.ID)
	if err != nil {
		return q, false, err
	}
	inQueue := false
	for _, m := range members {
		if m.MemberID == memberID {
			inQueue = true
			break
		}
	}
	if !inQueue {
		if q.Locked {
			return q, false, ErrQueueLocked
		}
		if q.MaxMembers != nil && len(members) >= *q.MaxMembers {
			return q, false, ErrQueueFull
		}
	}

	joined, err := s.queues.Toggle(ctx, q.GuildID, q.ID, memberID)
	if err != nil {
		return q, false, fmt.Errorf("toggle: %w", err)
	}
	if err := s.pub.Publish(ctx, q.ID); err != nil {
		return q, joined, fmt.Errorf("publish refresh: %w", err)
	}
	return q, joined, nil
}

// Reply arma el mensaje efímero que ve el miembro después del click.
func Reply(q domain.Queue, joined bool, err error) string {
	switch {
	case errors.Is(err, ErrQueueLocked):
		return "🔒 **" + q.Name + "** is locked."
	case errors.Is(err, ErrQueueFull):
		return "❌ **" + q.Name + "** is full."
	case errors.Is(err, domain.ErrNotFound):
		return "ℹ️ This display is no longer linked to a queue."
	case err != nil:
		return "❌ Something went wrong, try again."
	case joined:
		return "✅ You joined **" + q.Name + "**."
	default:
		return "✅ You left **" + q.Name + "**."
	}
}
