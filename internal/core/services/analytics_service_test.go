package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"tempvoice/internal/core/domain"
)

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*domain.Event
}

func (r *fakeEventRepo) Record(ctx context.Context, events ...*domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *fakeEventRepo) Stats(ctx context.Context, guild domain.GuildID, since time.Time) (*domain.GuildStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &domain.GuildStats{GuildID: guild, Since: since, OperationCounts: map[string]int64{}}
	for _, ev := range r.events {
		if ev.GuildID != guild || ev.RecordedAt.Before(since) {
			continue
		}
		switch ev.Kind {
		case domain.EventChannelCreated:
			stats.ChannelsCreated++
		case domain.EventChannelDeleted:
			stats.ChannelsDeleted++
		case domain.EventOperation:
			stats.Operations++
			stats.OperationCounts[ev.Action]++
		case domain.EventError:
			stats.ErrorCount++
		}
	}
	return stats, nil
}

func (r *fakeEventRepo) Prune(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func TestAnalyticsBatchesAndFlushes(t *testing.T) {
	repo := &fakeEventRepo{}
	svc := NewAnalyticsService(repo, newTestOwnership(newFakeChannelRepo()), 100, time.Hour, zap.NewNop())

	svc.RecordEvent(&domain.Event{Kind: domain.EventOperation, GuildID: testGuild, Action: "rename"})
	svc.RecordEvent(&domain.Event{Kind: domain.EventChannelCreated, GuildID: testGuild})

	repo.mu.Lock()
	buffered := len(repo.events)
	repo.mu.Unlock()
	if buffered != 0 {
		t.Errorf("events should still be buffered, repo has %d", buffered)
	}

	if err := svc.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	repo.mu.Lock()
	flushed := len(repo.events)
	repo.mu.Unlock()
	if flushed != 2 {
		t.Errorf("repo has %d events after flush, want 2", flushed)
	}
}

func TestAnalyticsStatsFlushesFirst(t *testing.T) {
	repo := &fakeEventRepo{}
	svc := NewAnalyticsService(repo, newTestOwnership(newFakeChannelRepo()), 100, time.Hour, zap.NewNop())

	svc.RecordEvent(&domain.Event{Kind: domain.EventOperation, GuildID: testGuild, Action: "kick"})

	stats, err := svc.Stats(context.Background(), testGuild, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Operations != 1 || stats.OperationCounts["kick"] != 1 {
		t.Errorf("stats missing buffered event: %+v", stats)
	}
}

func TestActiveChannels(t *testing.T) {
	ownership := newTestOwnership(newFakeChannelRepo())
	ctx := context.Background()
	_ = ownership.Register(ctx, testChannel, testOwner, testGuild)

	svc := NewAnalyticsService(&fakeEventRepo{}, ownership, 100, time.Hour, zap.NewNop())

	active := svc.ActiveChannels(ctx)
	if len(active) != 1 {
		t.Fatalf("got %d active channels, want 1", len(active))
	}
	if active[0].ChannelID != testChannel || active[0].OwnerID != testOwner {
		t.Errorf("unexpected row: %+v", active[0])
	}
	if active[0].Age < 0 {
		t.Errorf("negative age: %v", active[0].Age)
	}
}
