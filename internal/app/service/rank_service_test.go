package service

import (
	"context"
	"strings"
	"testing"

	"github.com/jose-valero/queue-display-bot/internal/domain"
	"github.com/jose-valero/queue-display-bot/internal/infra/storage"
)

func intp(v int) *int { return &v }

func TestRankService_Link(t *testing.T) {
	api := fakeRankingAPI{
		accounts: map[string]domain.RankAccount{"Ace": {ID: "acc-1", Name: "Ace"}},
		scores:   map[string]domain.RankSnapshot{"acc-1": {Score: intp(2450)}},
	}
	repo := &fakeRankRepo{rows: map[string]storage.RankSetting{}}
	pub := &fakePublisher{}
	svc := NewRankService(api, repo, newFakeQueues(lobby()), pub, nil)
	ctx := context.Background()

	msg, err := svc.Link(ctx, "g1", "m1", "Nobody")
	if err != nil || !strings.Contains(msg, "No account") {
		t.Fatalf("msg=%q err=%v", msg, err)
	}

	msg, err = svc.Link(ctx, "g1", "m1", "Ace")
	if err != nil || !strings.Contains(msg, "Linked") {
		t.Fatalf("msg=%q err=%v", msg, err)
	}
	rs := repo.rows["g1/m1"]
	if a := rs.Annotation(); !a.Resolved || a.Score == nil || *a.Score != 2450 {
		t.Fatalf("annotation = %+v", a)
	}
	if got := pub.published(); len(got) != 1 || got[0] != "q1" {
		t.Fatalf("published = %v", got)
	}
}

func TestRankService_RefreshAll(t *testing.T) {
	id1, id2, id3 := "acc-1", "acc-2", "acc-3"
	repo := &fakeRankRepo{rows: map[string]storage.RankSetting{
		"g1/a": {GuildID: "g1", MemberID: "a", AccountID: &id1, CachedScore: intp(2000)},
		"g1/b": {GuildID: "g1", MemberID: "b", AccountID: &id2, CachedScore: intp(3000)},
		"g1/c": {GuildID: "g1", MemberID: "c", AccountID: &id3, CachedScore: intp(4000)},
	}}
	api := fakeRankingAPI{scores: map[string]domain.RankSnapshot{
		"acc-1": {Score: intp(2000)},
		"acc-2": {Score: intp(3100)},
	}}
	pub := &fakePublisher{}
	svc := NewRankService(api, repo, newFakeQueues(lobby()), pub, nil)

	n, err := svc.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if n != 1 || repo.updates != 1 {
		t.Fatalf("updated=%d updates=%d", n, repo.updates)
	}
	if got := *repo.rows["g1/c"].CachedScore; got != 4000 {
		t.Fatalf("failed lookup overwrote cache: %d", got)
	}
	if got := pub.published(); len(got) != 1 {
		t.Fatalf("published = %v", got)
	}
}

func TestRankService_RefreshAllTouchesUnchangedRank(t *testing.T) {
	id1, id2 := "acc-1", "acc-2"
	repo := &fakeRankRepo{rows: map[string]storage.RankSetting{
		"g1/a": {GuildID: "g1", MemberID: "a", AccountID: &id1, CachedScore: intp(2000)},
		"g1/b": {GuildID: "g1", MemberID: "b", AccountID: &id2, CachedScore: intp(3000)},
	}}
	api := fakeRankingAPI{scores: map[string]domain.RankSnapshot{
		"acc-1": {Score: intp(2000)},
	}}
	svc := NewRankService(api, repo, nil, nil, nil)

	n, err := svc.RefreshAll(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if repo.updates != 0 {
		t.Fatalf("updates = %d", repo.updates)
	}
	if len(repo.touched) != 1 || repo.touched[0] != "a" {
		t.Fatalf("touched = %v", repo.touched)
	}
	if repo.rows["g1/a"].UpdatedAt.IsZero() {
		t.Fatal("unchanged rank kept its old updated_at")
	}

	// la cuenta consultada pasa detrás de la que falló
	linked, _ := repo.ListLinked(context.Background(), 1)
	if len(linked) != 1 || linked[0].MemberID != "b" {
		t.Fatalf("next batch = %+v", linked)
	}
}

func TestRankService_Clear(t *testing.T) {
	repo := &fakeRankRepo{rows: map[string]storage.RankSetting{}}
	svc := NewRankService(fakeRankingAPI{}, repo, nil, nil, nil)

	msg, err := svc.Clear(context.Background(), "g1", "m1")
	if err != nil || !strings.Contains(msg, "no linked account") {
		t.Fatalf("msg=%q err=%v", msg, err)
	}
}
