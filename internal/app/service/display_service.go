package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jose-valero/queue-display-bot/internal/app/render"
	"github.com/jose-valero/queue-display-bot/internal/domain"
	"github.com/jose-valero/queue-display-bot/internal/infra/logger"
)

// resultados por target (labels de métricas)
const (
	OutcomeEdited       = "edited"
	OutcomeReplaced     = "replaced"
	OutcomeDeregistered = "deregistered"
	OutcomeSkipped      = "skipped"
	OutcomeFailed       = "failed"
)

// ErrCannotPost: el bot no tiene SEND_MESSAGES + EMBED_LINKS en el canal.
var ErrCannotPost = errors.New("missing send/embed permissions")

const defaultValidateTimeout = 10 * time.Second

type DisplayDeps struct {
	Platform  Platform
	Queues    QueueRepo
	Displays  DisplayRepo
	Guilds    GuildRepo
	Ranks     RankLookup
	Schedules ScheduleRepo
	Validator Validator
	Metrics   Recorder
	Durations *render.DurationFormatter
	Log       logger.Logger

	ValidateTimeout time.Duration
}

// DisplayService mantiene los mensajes de display alineados con la cola.
type DisplayService struct {
	platform  Platform
	queues    QueueRepo
	displays  DisplayRepo
	guilds    GuildRepo
	ranks     RankLookup
	schedules ScheduleRepo
	validator Validator
	metrics   Recorder
	durations *render.DurationFormatter
	log       logger.Logger

	validateTimeout time.Duration
}

func NewDisplayService(d DisplayDeps) *DisplayService {
	s := &DisplayService{
		platform:        d.Platform,
		queues:          d.Queues,
		displays:        d.Displays,
		guilds:          d.Guilds,
		ranks:           d.Ranks,
		schedules:       d.Schedules,
		validator:       d.Validator,
		metrics:         d.Metrics,
		durations:       d.Durations,
		log:             d.Log,
		validateTimeout: d.ValidateTimeout,
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.durations == nil {
		s.durations = render.NewDurationFormatter()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.validateTimeout <= 0 {
		s.validateTimeout = defaultValidateTimeout
	}
	return s
}

// SetValidator permite cablear el validador después (depende del publisher).
func (s *DisplayService) SetValidator(v Validator) { s.validator = v }

// Refresh re-renderiza la cola y sincroniza todos sus displays.
// Los errores de un target no cortan el resto.
func (s *DisplayService) Refresh(ctx context.Context, queueID string) error {
	start := time.Now()
	log := s.log.With("queue_id", queueID)

	targets, err := s.displays.ListByQueue(ctx, queueID)
	if err != nil {
		s.metrics.Refresh("error", time.Since(start))
		return fmt.Errorf("list displays: %w", err)
	}
	if len(targets) == 0 {
		s.metrics.Refresh("noop", time.Since(start))
		return nil
	}

	q, err := s.queues.Get(ctx, queueID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug("[display.refresh] queue gone")
		s.metrics.Refresh("noop", time.Since(start))
		return nil
	}
	if err != nil {
		s.metrics.Refresh("error", time.Since(start))
		return fmt.Errorf("get queue: %w", err)
	}

	doc, guild, err := s.render(ctx, log, q)
	if err != nil {
		s.metrics.Refresh("error", time.Since(start))
		return err
	}
	ctl := render.ControlFor(q.Kind, q.HideControl)

	for _, t := range targets {
		s.syncTarget(ctx, log, q, guild.Mode, doc, ctl, t)
	}

	s.validate(q)

	s.metrics.Refresh("ok", time.Since(start))
	log.Debug("[display.refresh] done", "targets", len(targets), "rendered", doc.Rendered, "dur", time.Since(start))
	return nil
}

// Attach publica un display nuevo de la cola en channelID y lo registra.
// Los displays previos de la misma cola en ese canal se reemplazan.
func (s *DisplayService) Attach(ctx context.Context, queueID, channelID string) error {
	log := s.log.With("queue_id", queueID, "channel_id", channelID)

	q, err := s.queues.Get(ctx, queueID)
	if err != nil {
		return fmt.Errorf("get queue: %w", err)
	}
	ok, err := s.platform.CanPost(ctx, channelID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCannotPost
	}

	doc, _, err := s.render(ctx, log, q)
	if err != nil {
		return err
	}
	if err := s.dropBindings(ctx, log, queueID, channelID); err != nil {
		return err
	}

	msgID, err := s.platform.SendDisplay(ctx, channelID, doc, render.ControlFor(q.Kind, q.HideControl))
	if err != nil {
		return fmt.Errorf("send display: %w", err)
	}
	if err := s.displays.Insert(ctx, domain.DisplayTarget{QueueID: queueID, ChannelID: channelID, MessageID: msgID}); err != nil {
		return fmt.Errorf("store display: %w", err)
	}
	log.Info("[display.attach] ok", "message_id", msgID)
	return nil
}

// Detach borra los displays de la cola en channelID ("" = todos los canales).
func (s *DisplayService) Detach(ctx context.Context, queueID, channelID string) (int, error) {
	log := s.log.With("queue_id", queueID, "channel_id", channelID)

	targets, err := s.displays.ListByQueue(ctx, queueID)
	if err != nil {
		return 0, fmt.Errorf("list displays: %w", err)
	}
	n := 0
	for _, t := range targets {
		if channelID != "" && t.ChannelID != channelID {
			continue
		}
		if err := s.platform.DeleteMessage(ctx, t.ChannelID, t.MessageID); err != nil && !errors.Is(err, domain.ErrSurfaceGone) {
			log.Warn("[display.detach] delete message", "message_id", t.MessageID, "error", err)
		}
		n++
	}
	if _, err := s.displays.Delete(ctx, queueID, channelID); err != nil {
		return 0, fmt.Errorf("delete displays: %w", err)
	}
	return n, nil
}

func (s *DisplayService) dropBindings(ctx context.Context, log logger.Logger, queueID, channelID string) error {
	targets, err := s.displays.ListByQueue(ctx, queueID)
	if err != nil {
		return fmt.Errorf("list displays: %w", err)
	}
	found := false
	for _, t := range targets {
		if t.ChannelID != channelID {
			continue
		}
		found = true
		if err := s.platform.DeleteMessage(ctx, t.ChannelID, t.MessageID); err != nil && !errors.Is(err, domain.ErrSurfaceGone) {
			log.Warn("[display.attach] delete old message", "message_id", t.MessageID, "error", err)
		}
	}
	if !found {
		return nil
	}
	_, err = s.displays.Delete(ctx, queueID, channelID)
	return err
}

// render junta todo lo que necesita el builder y aplica sus write-backs.
func (s *DisplayService) render(ctx context.Context, log logger.Logger, q domain.Queue) (render.Document, domain.GuildConfig, error) {
	guild, err := s.guilds.Get(ctx, q.GuildID)
	if err != nil {
		return render.Document{}, guild, fmt.Errorf("get guild config: %w", err)
	}
	members, err := s.queues.Members(ctx, q.ID)
	if err != nil {
		return render.Document{}, guild, fmt.Errorf("list members: %w", err)
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.MemberID
	}
	ranks, err := s.ranks.GetMany(ctx, q.GuildID, ids)
	if err != nil {
		// se renderiza sin ranks
		log.Warn("[display.render] ranks", "error", err)
		ranks = nil
	}

	var names map[string]render.NameLookup
	if guild.DisableMentions {
		names = s.names(ctx, q.GuildID, ids)
	}

	var target render.TargetState
	if q.TargetChannelID != "" {
		ch, err := s.platform.Channel(ctx, q.TargetChannelID)
		switch {
		case errors.Is(err, domain.ErrSurfaceGone):
			target.Missing = true
		case err != nil:
			log.Warn("[display.render] target channel", "channel_id", q.TargetChannelID, "error", err)
		default:
			target.Name = ch.Name
		}
	}

	schedule, err := s.schedules.Summary(ctx, q.ID)
	if err != nil {
		log.Warn("[display.render] schedules", "error", err)
		schedule = ""
	}

	doc := render.Build(render.Input{
		Queue:     q,
		Guild:     guild,
		Members:   members,
		Ranks:     ranks,
		Names:     names,
		Target:    target,
		Schedule:  schedule,
		Icons:     s.platform.Icons(q.GuildID),
		Durations: s.durations,
	})

	if doc.ClearTarget {
		if err := s.queues.ClearTarget(ctx, q.ID); err != nil {
			log.Warn("[display.render] clear target", "error", err)
		}
	}
	if len(doc.Stale) > 0 {
		if _, err := s.queues.RemoveMembers(ctx, q.GuildID, q.ID, doc.Stale); err != nil {
			log.Warn("[display.render] remove stale members", "error", err, "n", len(doc.Stale))
		}
	}
	if doc.Truncated {
		s.metrics.Truncated()
		log.Info("[display.render] truncated", "rendered", doc.Rendered, "members", len(members))
	}
	return doc, guild, nil
}

func (s *DisplayService) names(ctx context.Context, guildID string, ids []string) map[string]render.NameLookup {
	out := make(map[string]render.NameLookup, len(ids))
	for _, id := range ids {
		name, err := s.platform.MemberName(ctx, guildID, id)
		switch {
		case errors.Is(err, domain.ErrSurfaceGone):
			out[id] = render.NameLookup{Gone: true}
		case err != nil:
			// transitorio: se omite esta vez, sin limpieza
		default:
			out[id] = render.NameLookup{Name: name}
		}
	}
	return out
}

// syncTarget reconcilia un display. Nunca propaga errores ni panics.
func (s *DisplayService) syncTarget(ctx context.Context, log logger.Logger, q domain.Queue, mode domain.UpdateMode, doc render.Document, ctl *render.Control, t domain.DisplayTarget) {
	log = log.With("channel_id", t.ChannelID, "message_id", t.MessageID)
	outcome := OutcomeFailed
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("[display.target] panic", "panic", rec)
			outcome = OutcomeFailed
		}
		s.metrics.Target(outcome)
	}()

	if _, err := s.platform.Channel(ctx, t.ChannelID); err != nil {
		if errors.Is(err, domain.ErrSurfaceGone) {
			if _, err := s.displays.Delete(ctx, q.ID, t.ChannelID); err != nil {
				log.Warn("[display.target] deregister", "error", err)
				return
			}
			log.Info("[display.target] channel gone, deregistered")
			outcome = OutcomeDeregistered
			return
		}
		log.Warn("[display.target] channel", "error", err)
		outcome = OutcomeSkipped
		return
	}

	if err := s.platform.Message(ctx, t.ChannelID, t.MessageID); err != nil {
		log.Debug("[display.target] message unavailable", "error", err)
		outcome = OutcomeSkipped
		return
	}

	if ok, err := s.platform.CanPost(ctx, t.ChannelID); err != nil || !ok {
		log.Debug("[display.target] missing permissions", "error", err)
		outcome = OutcomeSkipped
		return
	}

	if mode == domain.ModeEdit {
		if err := s.platform.EditDisplay(ctx, t.ChannelID, t.MessageID, doc, ctl); err != nil {
			log.Warn("[display.target] edit", "error", err)
			return
		}
		outcome = OutcomeEdited
		return
	}

	// replace: se desregistran todos los bindings de la cola en el canal
	// y cada mensaje desregistrado se borra o se queda sin controles.
	bound, err := s.displays.ListByQueue(ctx, q.ID)
	if err != nil {
		log.Warn("[display.target] list old", "error", err)
		return
	}
	var old []domain.DisplayTarget
	still := false
	for _, b := range bound {
		if b.ChannelID != t.ChannelID {
			continue
		}
		old = append(old, b)
		still = still || b.MessageID == t.MessageID
	}
	if !still {
		// otro target del mismo canal ya lo reemplazó en esta pasada
		log.Debug("[display.target] already replaced")
		outcome = OutcomeSkipped
		return
	}
	if _, err := s.displays.Delete(ctx, q.ID, t.ChannelID); err != nil {
		log.Warn("[display.target] deregister old", "error", err)
		return
	}
	for _, b := range old {
		s.retire(ctx, log, mode, b.ChannelID, b.MessageID)
	}

	msgID, err := s.platform.SendDisplay(ctx, t.ChannelID, doc, ctl)
	if err != nil {
		log.Warn("[display.target] send", "error", err)
		return
	}
	if err := s.displays.Insert(ctx, domain.DisplayTarget{QueueID: q.ID, ChannelID: t.ChannelID, MessageID: msgID}); err != nil {
		log.Warn("[display.target] store new", "error", err, "new_message_id", msgID)
		return
	}
	outcome = OutcomeReplaced
}

func (s *DisplayService) retire(ctx context.Context, log logger.Logger, mode domain.UpdateMode, channelID, messageID string) {
	switch mode {
	case domain.ModeReplaceStrip:
		if err := s.platform.StripControls(ctx, channelID, messageID); err != nil {
			log.Warn("[display.target] strip controls", "old_message_id", messageID, "error", err)
		}
	default:
		if err := s.platform.DeleteMessage(ctx, channelID, messageID); err != nil {
			log.Warn("[display.target] delete old", "old_message_id", messageID, "error", err)
		}
	}
}

// validate corre el validador en background; sus errores no llegan al caller.
func (s *DisplayService) validate(q domain.Queue) {
	if s.validator == nil {
		return
	}
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("[display.validate] panic", "queue_id", q.ID, "panic", rec)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), s.validateTimeout)
		defer cancel()
		if err := s.validator.ValidateQueue(ctx, q); err != nil {
			s.log.Debug("[display.validate] failed", "queue_id", q.ID, "error", err)
		}
	}()
}
