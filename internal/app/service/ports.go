package service

import (
	"context"
	"time"

	"github.com/jose-valero/queue-display-bot/internal/app/render"
	"github.com/jose-valero/queue-display-bot/internal/domain"
	"github.com/jose-valero/queue-display-bot/internal/infra/storage"
)

// Lo implementa internal/adapters/discord.Platform.
// Los errores de superficie inexistente o sin acceso envuelven domain.ErrSurfaceGone.
type Platform interface {
	Channel(ctx context.Context, channelID string) (domain.Channel, error)
	Message(ctx context.Context, channelID, messageID string) error
	CanPost(ctx context.Context, channelID string) (bool, error)
	SendDisplay(ctx context.Context, channelID string, doc render.Document, ctl *render.Control) (string, error)
	EditDisplay(ctx context.Context, channelID, messageID string, doc render.Document, ctl *render.Control) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	StripControls(ctx context.Context, channelID, messageID string) error
	MemberName(ctx context.Context, guildID, memberID string) (string, error)
	Icons(guildID string) render.IconResolver
}

// Lo implementa internal/infra/storage.QueueRepo
type QueueRepo interface {
	Get(ctx context.Context, queueID string) (domain.Queue, error)
	Members(ctx context.Context, queueID string) ([]domain.QueueMember, error)
	ClearTarget(ctx context.Context, queueID string) error
	RemoveMembers(ctx context.Context, guildID, queueID string, memberIDs []string) (int64, error)
	Toggle(ctx context.Context, guildID, queueID, memberID string) (bool, error)
}

// Lo implementa internal/infra/storage.DisplayRepo
type DisplayRepo interface {
	ListByQueue(ctx context.Context, queueID string) ([]domain.DisplayTarget, error)
	ListByChannel(ctx context.Context, channelID string) ([]domain.DisplayTarget, error)
	GetByMessage(ctx context.Context, messageID string) (domain.DisplayTarget, error)
	Insert(ctx context.Context, t domain.DisplayTarget) error
	Delete(ctx context.Context, queueID, channelID string) (int64, error)
}

type GuildRepo interface {
	Get(ctx context.Context, guildID string) (domain.GuildConfig, error)
}

type RankLookup interface {
	GetMany(ctx context.Context, guildID string, memberIDs []string) (map[string]domain.RankAnnotation, error)
}

type ScheduleRepo interface {
	Summary(ctx context.Context, queueID string) (string, error)
}

// Lo implementa internal/infra/storage.RankRepo
type RankRepo interface {
	Get(ctx context.Context, guildID, memberID string) (storage.RankSetting, error)
	SetAccount(ctx context.Context, guildID, memberID, accountName, accountID string) error
	UpdateRank(ctx context.Context, guildID, memberID string, score *int, unranked bool) error
	Touch(ctx context.Context, guildID, memberID string) error
	Clear(ctx context.Context, guildID, memberID string) (bool, error)
	ListLinked(ctx context.Context, limit int) ([]storage.RankSetting, error)
}

// Lo implementa internal/adapters/ranking.Client
type RankingAPI interface {
	LookupAccount(ctx context.Context, name string) (domain.RankAccount, error)
	Rank(ctx context.Context, accountID string) (domain.RankSnapshot, error)
}

// Validator corre después de cada refresh, sin bloquearlo.
type Validator interface {
	ValidateQueue(ctx context.Context, q domain.Queue) error
}

// Publisher encola un refresh; lo implementa internal/infra/events.
type Publisher interface {
	Publish(ctx context.Context, queueID string) error
}

// Recorder recibe las métricas del sync; lo implementa internal/infra/metrics.
type Recorder interface {
	Refresh(result string, took time.Duration)
	Target(outcome string)
	Truncated()
}

type nopRecorder struct{}

func (nopRecorder) Refresh(string, time.Duration) {}
func (nopRecorder) Target(string)                 {}
func (nopRecorder) Truncated()                    {}
