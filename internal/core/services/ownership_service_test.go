package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
	"tempvoice/pkg/circuitbreaker"
)

type fakeChannelRepo struct {
	mu       sync.Mutex
	channels map[domain.ChannelID]*domain.Channel
	failAll  bool
}

func newFakeChannelRepo() *fakeChannelRepo {
	return &fakeChannelRepo{channels: make(map[domain.ChannelID]*domain.Channel)}
}

var errRepoDown = errors.New("store unavailable")

func (r *fakeChannelRepo) Get(ctx context.Context, id domain.ChannelID) (*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errRepoDown
	}
	ch, ok := r.channels[id]
	if !ok {
		return nil, domain.ErrChannelNotFound
	}
	cp := *ch
	return &cp, nil
}

func (r *fakeChannelRepo) Save(ctx context.Context, ch *domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errRepoDown
	}
	cp := *ch
	r.channels[ch.ID] = &cp
	return nil
}

func (r *fakeChannelRepo) UpdateOwner(ctx context.Context, id domain.ChannelID, owner domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errRepoDown
	}
	if ch, ok := r.channels[id]; ok {
		ch.OwnerID = owner
	}
	return nil
}

func (r *fakeChannelRepo) Delete(ctx context.Context, id domain.ChannelID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errRepoDown
	}
	delete(r.channels, id)
	return nil
}

func (r *fakeChannelRepo) ListByGuild(ctx context.Context, guild domain.GuildID) ([]*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Channel
	for _, ch := range r.channels {
		if ch.GuildID == guild {
			cp := *ch
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeChannelRepo) ListAll(ctx context.Context) ([]*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errRepoDown
	}
	var out []*domain.Channel
	for _, ch := range r.channels {
		cp := *ch
		out = append(out, &cp)
	}
	return out, nil
}

const (
	testOwner   = domain.UserID("111111111111111111")
	testClaimer = domain.UserID("222222222222222222")
	testGuild   = domain.GuildID("300000000000000000")
	testChannel = domain.ChannelID("400000000000000000")
)

func newTestOwnership(repo ports.ChannelRepository) ports.OwnershipService {
	return NewOwnershipService(repo, circuitbreaker.New(circuitbreaker.DefaultConfig()), nil, zap.NewNop())
}

func TestRegisterAndCheck(t *testing.T) {
	repo := newFakeChannelRepo()
	svc := newTestOwnership(repo)
	ctx := context.Background()

	if err := svc.Register(ctx, testChannel, testOwner, testGuild); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if !svc.Check(ctx, testChannel, testOwner) {
		t.Error("owner should pass Check")
	}
	if svc.Check(ctx, testChannel, testClaimer) {
		t.Error("non-owner should fail Check")
	}
	if svc.Check(ctx, "unknown", testOwner) {
		t.Error("unknown channel should fail Check")
	}
}

func TestRegisterRejectsMalformedOwner(t *testing.T) {
	svc := newTestOwnership(newFakeChannelRepo())
	if err := svc.Register(context.Background(), testChannel, "not-an-id", testGuild); err == nil {
		t.Error("expected error for malformed owner id")
	}
}

func TestRegisterMirrorsToStore(t *testing.T) {
	repo := newFakeChannelRepo()
	svc := newTestOwnership(repo)
	ctx := context.Background()

	if err := svc.Register(ctx, testChannel, testOwner, testGuild); err != nil {
		t.Fatal(err)
	}
	ch, err := repo.Get(ctx, testChannel)
	if err != nil {
		t.Fatalf("mirror record missing: %v", err)
	}
	if ch.OwnerID != testOwner || ch.GuildID != testGuild {
		t.Errorf("mirror record wrong: %+v", ch)
	}
}

func TestCheckFallsBackToMirror(t *testing.T) {
	repo := newFakeChannelRepo()
	_ = repo.Save(context.Background(), &domain.Channel{
		ID: testChannel, GuildID: testGuild, OwnerID: testOwner, CreatedAt: time.Now(),
	})

	// fresh service with empty map simulates a restart
	svc := newTestOwnership(repo)
	if !svc.Check(context.Background(), testChannel, testOwner) {
		t.Error("Check should self-heal from the durable mirror")
	}

	// once healed, the answer holds even with the store down
	repo.mu.Lock()
	repo.failAll = true
	repo.mu.Unlock()
	if !svc.Check(context.Background(), testChannel, testOwner) {
		t.Error("healed map should answer without the store")
	}
}

func TestRegisterSurvivesStoreOutage(t *testing.T) {
	repo := newFakeChannelRepo()
	repo.failAll = true
	svc := newTestOwnership(repo)
	ctx := context.Background()

	if err := svc.Register(ctx, testChannel, testOwner, testGuild); err != nil {
		t.Fatalf("Register must not fail on mirror outage: %v", err)
	}
	if !svc.Check(ctx, testChannel, testOwner) {
		t.Error("in-memory registration should hold despite mirror outage")
	}
}

func TestTransfer(t *testing.T) {
	repo := newFakeChannelRepo()
	svc := newTestOwnership(repo)
	ctx := context.Background()

	_ = svc.Register(ctx, testChannel, testOwner, testGuild)

	res, err := svc.Transfer(ctx, testChannel, testClaimer)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if res.OldOwnerID != testOwner || res.NewOwnerID != testClaimer {
		t.Errorf("unexpected result: %+v", res)
	}
	if !svc.Check(ctx, testChannel, testClaimer) {
		t.Error("new owner should pass Check")
	}
	if svc.Check(ctx, testChannel, testOwner) {
		t.Error("old owner should fail Check")
	}

	ch, _ := repo.Get(ctx, testChannel)
	if ch.OwnerID != testClaimer {
		t.Error("mirror owner not updated")
	}
}

func TestTransferUnknownChannel(t *testing.T) {
	svc := newTestOwnership(newFakeChannelRepo())
	if _, err := svc.Transfer(context.Background(), "nope", testClaimer); !errors.Is(err, domain.ErrInvalidTransfer) {
		t.Errorf("expected ErrInvalidTransfer, got %v", err)
	}
}

func TestTransferMalformedTarget(t *testing.T) {
	svc := newTestOwnership(newFakeChannelRepo())
	_ = svc.Register(context.Background(), testChannel, testOwner, testGuild)
	if _, err := svc.Transfer(context.Background(), testChannel, "garbage"); !errors.Is(err, domain.ErrInvalidTransfer) {
		t.Errorf("expected ErrInvalidTransfer, got %v", err)
	}
}

func TestCleanup(t *testing.T) {
	repo := newFakeChannelRepo()
	svc := newTestOwnership(repo)
	ctx := context.Background()

	_ = svc.Register(ctx, testChannel, testOwner, testGuild)
	if err := svc.Cleanup(ctx, testChannel); err != nil {
		t.Fatal(err)
	}
	if svc.Check(ctx, testChannel, testOwner) {
		t.Error("cleaned-up channel should fail Check")
	}
	if _, err := repo.Get(ctx, testChannel); err == nil {
		t.Error("mirror record should be deleted")
	}
}

func TestRestore(t *testing.T) {
	repo := newFakeChannelRepo()
	ctx := context.Background()
	for _, id := range []domain.ChannelID{"400000000000000001", "400000000000000002"} {
		_ = repo.Save(ctx, &domain.Channel{ID: id, GuildID: testGuild, OwnerID: testOwner, CreatedAt: time.Now()})
	}

	svc := newTestOwnership(repo)
	n, err := svc.Restore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Restore returned %d, want 2", n)
	}
	if len(svc.Snapshot(ctx)) != 2 {
		t.Errorf("Snapshot size = %d, want 2", len(svc.Snapshot(ctx)))
	}
}
