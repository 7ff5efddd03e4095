package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jose-valero/queue-display-bot/internal/domain"
)

type harness struct {
	platform *fakePlatform
	queues   *fakeQueues
	displays *fakeDisplays
	metrics  *countingRecorder
	svc      *DisplayService
}

func newHarness(mode domain.UpdateMode, q domain.Queue, targets ...domain.DisplayTarget) *harness {
	var chans []string
	for _, t := range targets {
		chans = append(chans, t.ChannelID)
	}
	h := &harness{
		platform: newFakePlatform(chans...),
		queues:   newFakeQueues(q),
		displays: &fakeDisplays{targets: targets},
		metrics:  newCountingRecorder(),
	}
	h.svc = NewDisplayService(DisplayDeps{
		Platform:  h.platform,
		Queues:    h.queues,
		Displays:  h.displays,
		Guilds:    fakeGuilds{cfg: domain.GuildConfig{Mode: mode}},
		Ranks:     fakeRanks{},
		Schedules: fakeSchedules{},
		Metrics:   h.metrics,
	})
	return h
}

func lobby() domain.Queue { return domain.Queue{ID: "q1", GuildID: "g1", Name: "Lobby"} }

func target(ch, msg string) domain.DisplayTarget {
	return domain.DisplayTarget{QueueID: "q1", ChannelID: ch, MessageID: msg}
}

func TestRefresh_NoTargetsIsNoop(t *testing.T) {
	h := newHarness(domain.ModeEdit, lobby())

	if err := h.svc.Refresh(context.Background(), "q1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if n := h.platform.callCount(); n != 0 {
		t.Fatalf("platform calls = %d, want 0", n)
	}
	if h.metrics.results["noop"] != 1 {
		t.Fatalf("results = %v", h.metrics.results)
	}
}

func TestRefresh_MissingQueueIsNoop(t *testing.T) {
	h := newHarness(domain.ModeEdit, domain.Queue{ID: "other"}, target("c1", "m1"))

	if err := h.svc.Refresh(context.Background(), "q1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if n := h.platform.callCount(); n != 0 {
		t.Fatalf("platform calls = %d, want 0", n)
	}
}

func TestRefresh_FaultIsolation(t *testing.T) {
	h := newHarness(domain.ModeEdit, lobby(),
		target("c1", "m1"), target("c2", "m2"), target("c3", "m3"), target("c4", "m4"))
	h.platform.editErr["c2"] = errors.New("500 from discord")
	h.platform.panicOn["c3"] = true

	if err := h.svc.Refresh(context.Background(), "q1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if got := h.platform.edits; len(got) != 2 || got[0] != "c1" || got[1] != "c4" {
		t.Fatalf("edits = %v, want [c1 c4]", got)
	}
	if h.metrics.outcome(OutcomeEdited) != 2 || h.metrics.outcome(OutcomeFailed) != 2 {
		t.Fatalf("outcomes = %v", h.metrics.outcomes)
	}
	if len(h.displays.snapshot()) != 4 {
		t.Fatalf("bindings changed: %v", h.displays.snapshot())
	}
}

func TestRefresh_GoneChannelIsDeregistered(t *testing.T) {
	h := newHarness(domain.ModeEdit, lobby(), target("c1", "m1"), target("c2", "m2"))
	delete(h.platform.channels, "c1")

	if err := h.svc.Refresh(context.Background(), "q1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	left := h.displays.snapshot()
	if len(left) != 1 || left[0].ChannelID != "c2" {
		t.Fatalf("bindings = %v", left)
	}
	if got := h.platform.edits; len(got) != 1 || got[0] != "c2" {
		t.Fatalf("edits = %v", got)
	}
}

func TestRefresh_TransientChannelErrorKeepsBinding(t *testing.T) {
	h := newHarness(domain.ModeEdit, lobby(), target("c1", "m1"))
	h.platform.channelErr["c1"] = errors.New("timeout")

	if err := h.svc.Refresh(context.Background(), "q1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(h.displays.snapshot()) != 1 {
		t.Fatal("binding removed on a transient error")
	}
	if h.metrics.outcome(OutcomeSkipped) != 1 {
		t.Fatalf("outcomes = %v", h.metrics.outcomes)
	}
}

func TestRefresh_MissingMessageOrPermissionSkips(t *testing.T) {
	h := newHarness(domain.ModeEdit, lobby(), target("c1", "m1"), target("c2", "m2"))
	h.platform.messageErr["m1"] = domain.ErrSurfaceGone
	h.platform.noPost["c2"] = true

	if err := h.svc.Refresh(context.Background(), "q1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(h.platform.edits) != 0 {
		t.Fatalf("edits = %v", h.platform.edits)
	}
	if len(h.displays.snapshot()) != 2 {
		t.Fatal("bindings should be kept")
	}
	if h.metrics.outcome(OutcomeSkipped) != 2 {
		t.Fatalf("outcomes = %v", h.metrics.outcomes)
	}
}

func TestRefresh_ReplaceDelete(t *testing.T) {
	h := newHarness(domain.ModeReplaceDelete, lobby(), target("c1", "m1"))

	if err := h.svc.Refresh(context.Background(), "q1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if got := h.platform.deletes; len(got) != 1 || got[0] != "m1" {
		t.Fatalf("deletes = %v", got)
	}
	if len(h.platform.strips) != 0 {
		t.Fatalf("strips = %v", h.platform.strips)
	}
	left := h.displays.snapshot()
	if len(left) != 1 || left[0].MessageID != "new-1" || left[0].ChannelID != "c1" {
		t.Fatalf("bindings = %v", left)
	}
}

func TestRefresh_ReplaceStrip(t *testing.T) {
	h := newHarness(domain.ModeReplaceStrip, lobby(), target("c1", "m1"))

	if err := h.svc.Refresh(context.Background(), "q1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if got := h.platform.strips; len(got) != 1 || got[0] != "m1" {
		t.Fatalf("strips = %v", got)
	}
	if len(h.platform.deletes) != 0 {
		t.Fatalf("deletes = %v", h.platform.deletes)
	}
	if h.metrics.outcome(OutcomeReplaced) != 1 {
		t.Fatalf("outcomes = %v", h.metrics.outcomes)
	}
}

func TestRefresh_ReplaceCollapsesBindingsInSameChannel(t *testing.T) {
	h := newHarness(domain.ModeReplaceDelete, lobby(), target("c1", "m1"), target("c1", "m2"))

	if err := h.svc.Refresh(context.Background(), "q1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if got := h.platform.sends; len(got) != 1 || got[0] != "c1" {
		t.Fatalf("sends = %v", got)
	}
	if got := h.platform.deletes; len(got) != 2 || got[0] != "m1" || got[1] != "m2" {
		t.Fatalf("deletes = %v", got)
	}
	left := h.displays.snapshot()
	if len(left) != 1 || left[0].MessageID != "new-1" {
		t.Fatalf("bindings = %v", left)
	}
	if h.metrics.outcome(OutcomeReplaced) != 1 || h.metrics.outcome(OutcomeSkipped) != 1 {
		t.Fatalf("outcomes = %v", h.metrics.outcomes)
	}
}

func TestRefresh_ReplaceStripsEveryOldBinding(t *testing.T) {
	h := newHarness(domain.ModeReplaceStrip, lobby(), target("c1", "m1"), target("c1", "m2"), target("c2", "m3"))

	if err := h.svc.Refresh(context.Background(), "q1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if got := h.platform.strips; len(got) != 3 || got[0] != "m1" || got[1] != "m2" || got[2] != "m3" {
		t.Fatalf("strips = %v", got)
	}
	left := h.displays.snapshot()
	if len(left) != 2 || left[0].MessageID != "new-1" || left[1].MessageID != "new-2" {
		t.Fatalf("bindings = %v", left)
	}
}

func TestRefresh_ReplaceSendFailure(t *testing.T) {
	h := newHarness(domain.ModeReplaceDelete, lobby(), target("c1", "m1"), target("c2", "m2"))
	h.platform.sendErr["c1"] = errors.New("503")

	if err := h.svc.Refresh(context.Background(), "q1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// el viejo ya se desregistró y borró; c1 queda sin display hasta un attach
	if got := h.platform.deletes; len(got) != 2 || got[0] != "m1" {
		t.Fatalf("deletes = %v", got)
	}
	left := h.displays.snapshot()
	if len(left) != 1 || left[0].ChannelID != "c2" || left[0].MessageID != "new-1" {
		t.Fatalf("bindings = %v", left)
	}
	if h.metrics.outcome(OutcomeFailed) != 1 || h.metrics.outcome(OutcomeReplaced) != 1 {
		t.Fatalf("outcomes = %v", h.metrics.outcomes)
	}
}

func TestRefresh_AppliesWriteBacks(t *testing.T) {
	q := lobby()
	q.TargetChannelID = "deleted"
	h := newHarness(domain.ModeEdit, q, target("c1", "m1"))
	h.svc.guilds = fakeGuilds{cfg: domain.GuildConfig{Mode: domain.ModeEdit, DisableMentions: true}}
	h.queues.members["q1"] = []domain.QueueMember{
		{GuildID: "g1", QueueID: "q1", MemberID: "a"},
		{GuildID: "g1", QueueID: "q1", MemberID: "b"},
	}
	h.platform.goneUsers["b"] = true

	if err := h.svc.Refresh(context.Background(), "q1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if len(h.queues.cleared) != 1 || h.queues.cleared[0] != "q1" {
		t.Fatalf("cleared = %v", h.queues.cleared)
	}
	if len(h.queues.removed) != 1 || h.queues.removed[0] != "b" {
		t.Fatalf("removed = %v", h.queues.removed)
	}
}

func TestRefresh_RankFailureStillRenders(t *testing.T) {
	h := newHarness(domain.ModeEdit, lobby(), target("c1", "m1"))
	h.svc.ranks = fakeRanks{err: errors.New("db down")}

	if err := h.svc.Refresh(context.Background(), "q1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(h.platform.edits) != 1 {
		t.Fatalf("edits = %v", h.platform.edits)
	}
}

func TestRefresh_RunsValidatorInBackground(t *testing.T) {
	h := newHarness(domain.ModeEdit, lobby(), target("c1", "m1"))
	ch := make(chan string, 1)
	h.svc.SetValidator(signalValidator{ch: ch})

	if err := h.svc.Refresh(context.Background(), "q1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	select {
	case id := <-ch:
		if id != "q1" {
			t.Fatalf("validated %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("validator never ran")
	}
}

func TestAttachAndDetach(t *testing.T) {
	h := newHarness(domain.ModeEdit, lobby(), target("c1", "m1"))
	h.platform.channels["c2"] = domain.Channel{ID: "c2"}
	ctx := context.Background()

	if err := h.svc.Attach(ctx, "q1", "c2"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if got := h.displays.snapshot(); len(got) != 2 || got[1].MessageID != "new-1" {
		t.Fatalf("bindings = %v", got)
	}

	// re-attach en el mismo canal reemplaza
	if err := h.svc.Attach(ctx, "q1", "c2"); err != nil {
		t.Fatalf("re-attach: %v", err)
	}
	if got := h.displays.snapshot(); len(got) != 2 || got[1].MessageID != "new-2" {
		t.Fatalf("bindings = %v", got)
	}

	n, err := h.svc.Detach(ctx, "q1", "")
	if err != nil || n != 2 {
		t.Fatalf("detach n=%d err=%v", n, err)
	}
	if len(h.displays.snapshot()) != 0 {
		t.Fatal("bindings left after detach")
	}
}

func TestAttach_NoPermission(t *testing.T) {
	h := newHarness(domain.ModeEdit, lobby())
	h.platform.noPost["c9"] = true

	if err := h.svc.Attach(context.Background(), "q1", "c9"); !errors.Is(err, ErrCannotPost) {
		t.Fatalf("err = %v", err)
	}
}
