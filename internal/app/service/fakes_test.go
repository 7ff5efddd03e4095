package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jose-valero/queue-display-bot/internal/app/render"
	"github.com/jose-valero/queue-display-bot/internal/domain"
	"github.com/jose-valero/queue-display-bot/internal/infra/storage"
)

type fakePlatform struct {
	mu sync.Mutex

	channels   map[string]domain.Channel
	channelErr map[string]error
	panicOn    map[string]bool
	messageErr map[string]error
	noPost     map[string]bool
	editErr    map[string]error
	sendErr    map[string]error
	names      map[string]string
	goneUsers  map[string]bool

	nextID  int
	edits   []string
	sends   []string
	deletes []string
	strips  []string
	calls   int
}

func newFakePlatform(channelIDs ...string) *fakePlatform {
	p := &fakePlatform{
		channels:   map[string]domain.Channel{},
		channelErr: map[string]error{},
		panicOn:    map[string]bool{},
		messageErr: map[string]error{},
		noPost:     map[string]bool{},
		editErr:    map[string]error{},
		sendErr:    map[string]error{},
		names:      map[string]string{},
		goneUsers:  map[string]bool{},
	}
	for _, id := range channelIDs {
		p.channels[id] = domain.Channel{ID: id, Name: "chan-" + id}
	}
	return p
}

func (p *fakePlatform) Channel(_ context.Context, id string) (domain.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.panicOn[id] {
		panic("boom " + id)
	}
	if err := p.channelErr[id]; err != nil {
		return domain.Channel{}, err
	}
	ch, ok := p.channels[id]
	if !ok {
		return domain.Channel{}, fmt.Errorf("channel %s: %w", id, domain.ErrSurfaceGone)
	}
	return ch, nil
}

func (p *fakePlatform) Message(_ context.Context, channelID, messageID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.messageErr[messageID]
}

func (p *fakePlatform) CanPost(_ context.Context, channelID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return !p.noPost[channelID], nil
}

func (p *fakePlatform) SendDisplay(_ context.Context, channelID string, _ render.Document, _ *render.Control) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if err := p.sendErr[channelID]; err != nil {
		return "", err
	}
	p.nextID++
	p.sends = append(p.sends, channelID)
	return fmt.Sprintf("new-%d", p.nextID), nil
}

func (p *fakePlatform) EditDisplay(_ context.Context, channelID, _ string, _ render.Document, _ *render.Control) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if err := p.editErr[channelID]; err != nil {
		return err
	}
	p.edits = append(p.edits, channelID)
	return nil
}

func (p *fakePlatform) DeleteMessage(_ context.Context, _, messageID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.deletes = append(p.deletes, messageID)
	return nil
}

func (p *fakePlatform) StripControls(_ context.Context, _, messageID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.strips = append(p.strips, messageID)
	return nil
}

func (p *fakePlatform) MemberName(_ context.Context, _, memberID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.goneUsers[memberID] {
		return "", domain.ErrSurfaceGone
	}
	if n, ok := p.names[memberID]; ok {
		return n, nil
	}
	return "user-" + memberID, nil
}

func (p *fakePlatform) Icons(string) render.IconResolver { return nil }

func (p *fakePlatform) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeQueues struct {
	mu      sync.Mutex
	queues  map[string]domain.Queue
	members map[string][]domain.QueueMember
	cleared []string
	removed []string
	toggles int
}

func newFakeQueues(qs ...domain.Queue) *fakeQueues {
	f := &fakeQueues{queues: map[string]domain.Queue{}, members: map[string][]domain.QueueMember{}}
	for _, q := range qs {
		f.queues[q.ID] = q
	}
	return f
}

func (f *fakeQueues) Get(_ context.Context, id string) (domain.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queues[id]
	if !ok {
		return domain.Queue{}, domain.ErrNotFound
	}
	return q, nil
}

func (f *fakeQueues) Members(_ context.Context, id string) ([]domain.QueueMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.QueueMember(nil), f.members[id]...), nil
}

func (f *fakeQueues) ClearTarget(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, id)
	return nil
}

func (f *fakeQueues) RemoveMembers(_ context.Context, _, queueID string, ids []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	var keep []domain.QueueMember
	var n int64
	for _, m := range f.members[queueID] {
		if drop[m.MemberID] {
			n++
			f.removed = append(f.removed, m.MemberID)
			continue
		}
		keep = append(keep, m)
	}
	f.members[queueID] = keep
	return n, nil
}

func (f *fakeQueues) Toggle(_ context.Context, guildID, queueID, memberID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles++
	ms := f.members[queueID]
	for i, m := range ms {
		if m.MemberID == memberID {
			f.members[queueID] = append(ms[:i:i], ms[i+1:]...)
			return false, nil
		}
	}
	f.members[queueID] = append(ms, domain.QueueMember{GuildID: guildID, QueueID: queueID, MemberID: memberID})
	return true, nil
}

func (f *fakeQueues) ListIDs(_ context.Context, guildID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for id, q := range f.queues {
		if q.GuildID == guildID {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

type fakeDisplays struct {
	mu      sync.Mutex
	targets []domain.DisplayTarget
}

func (f *fakeDisplays) ListByQueue(_ context.Context, queueID string) ([]domain.DisplayTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.DisplayTarget
	for _, t := range f.targets {
		if t.QueueID == queueID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeDisplays) ListByChannel(_ context.Context, channelID string) ([]domain.DisplayTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.DisplayTarget
	for _, t := range f.targets {
		if t.ChannelID == channelID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeDisplays) GetByMessage(_ context.Context, messageID string) (domain.DisplayTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.targets {
		if t.MessageID == messageID {
			return t, nil
		}
	}
	return domain.DisplayTarget{}, domain.ErrNotFound
}

func (f *fakeDisplays) Insert(_ context.Context, t domain.DisplayTarget) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, t)
	return nil
}

func (f *fakeDisplays) Delete(_ context.Context, queueID, channelID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keep []domain.DisplayTarget
	var n int64
	for _, t := range f.targets {
		if t.QueueID == queueID && (channelID == "" || t.ChannelID == channelID) {
			n++
			continue
		}
		keep = append(keep, t)
	}
	f.targets = keep
	return n, nil
}

func (f *fakeDisplays) snapshot() []domain.DisplayTarget {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.DisplayTarget(nil), f.targets...)
}

type fakeGuilds struct{ cfg domain.GuildConfig }

func (f fakeGuilds) Get(_ context.Context, guildID string) (domain.GuildConfig, error) {
	c := f.cfg
	c.GuildID = guildID
	if c.Mode == 0 {
		c.Mode = domain.ModeEdit
	}
	return c, nil
}

type fakeRanks struct {
	err error
	m   map[string]domain.RankAnnotation
}

func (f fakeRanks) GetMany(context.Context, string, []string) (map[string]domain.RankAnnotation, error) {
	return f.m, f.err
}

type fakeSchedules struct{ summary string }

func (f fakeSchedules) Summary(context.Context, string) (string, error) { return f.summary, nil }

type fakePublisher struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakePublisher) Publish(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return nil
}

func (f *fakePublisher) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

type signalValidator struct{ ch chan string }

func (v signalValidator) ValidateQueue(_ context.Context, q domain.Queue) error {
	v.ch <- q.ID
	return fmt.Errorf("ignored")
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
	results  map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{outcomes: map[string]int{}, results: map[string]int{}}
}

func (r *countingRecorder) Refresh(result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[result]++
}

func (r *countingRecorder) Target(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[outcome]++
}

func (r *countingRecorder) Truncated() {}

func (r *countingRecorder) outcome(o string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[o]
}

type fakeRankRepo struct {
	rows    map[string]storage.RankSetting
	updates int
	touched []string
	tick    int
}

func (f *fakeRankRepo) key(g, m string) string { return g + "/" + m }

func (f *fakeRankRepo) now() time.Time {
	f.tick++
	return time.Unix(int64(f.tick), 0)
}

func (f *fakeRankRepo) Get(_ context.Context, g, m string) (storage.RankSetting, error) {
	rs, ok := f.rows[f.key(g, m)]
	if !ok {
		return storage.RankSetting{}, domain.ErrNotFound
	}
	return rs, nil
}

func (f *fakeRankRepo) SetAccount(_ context.Context, g, m, name, id string) error {
	f.rows[f.key(g, m)] = storage.RankSetting{GuildID: g, MemberID: m, AccountName: &name, AccountID: &id, UpdatedAt: f.now()}
	return nil
}

func (f *fakeRankRepo) UpdateRank(_ context.Context, g, m string, score *int, unranked bool) error {
	rs := f.rows[f.key(g, m)]
	rs.CachedScore, rs.CachedUnranked = score, unranked
	rs.UpdatedAt = f.now()
	f.rows[f.key(g, m)] = rs
	f.updates++
	return nil
}

func (f *fakeRankRepo) Touch(_ context.Context, g, m string) error {
	rs := f.rows[f.key(g, m)]
	rs.UpdatedAt = f.now()
	f.rows[f.key(g, m)] = rs
	f.touched = append(f.touched, m)
	return nil
}

func (f *fakeRankRepo) Clear(_ context.Context, g, m string) (bool, error) {
	_, ok := f.rows[f.key(g, m)]
	delete(f.rows, f.key(g, m))
	return ok, nil
}

// ListLinked ordena como la query real: updated_at más viejo primero.
func (f *fakeRankRepo) ListLinked(_ context.Context, limit int) ([]storage.RankSetting, error) {
	var out []storage.RankSetting
	for _, rs := range f.rows {
		out = append(out, rs)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].MemberID < out[j].MemberID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeRankingAPI struct {
	accounts map[string]domain.RankAccount
	scores   map[string]domain.RankSnapshot
}

func (f fakeRankingAPI) LookupAccount(_ context.Context, name string) (domain.RankAccount, error) {
	a, ok := f.accounts[name]
	if !ok {
		return domain.RankAccount{}, domain.ErrNotFound
	}
	return a, nil
}

func (f fakeRankingAPI) Rank(_ context.Context, id string) (domain.RankSnapshot, error) {
	s, ok := f.scores[id]
	if !ok {
		return domain.RankSnapshot{}, fmt.Errorf("lookup %s failed", id)
	}
	return s, nil
}
