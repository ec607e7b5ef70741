package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routestops/routestops/internal/domain/entities"
)

type fakeAnalyticsRepo struct {
	logged chan *entities.SearchEvent
	err    error
}

func (r *fakeAnalyticsRepo) LogEvent(_ context.Context, event *entities.SearchEvent) error {
	r.logged <- event
	return r.err
}

func (r *fakeAnalyticsRepo) GetZeroResultSearches(context.Context, int) ([]*entities.SearchEvent, error) {
	return nil, nil
}

type fakeBus struct {
	published chan *entities.SearchEvent
}

func (b *fakeBus) Publish(_ context.Context, _ string, event *entities.SearchEvent) error {
	b.published <- event
	return nil
}

func (b *fakeBus) Subscribe(context.Context, string) (<-chan *entities.SearchEvent, error) {
	return nil, nil
}

func (b *fakeBus) Unsubscribe(context.Context, string) error { return nil }
func (b *fakeBus) Close() error                              { return nil }

func TestTrackSearch_LogsAndPublishes(t *testing.T) {
	repo := &fakeAnalyticsRepo{logged: make(chan *entities.SearchEvent, 1)}
	bus := &fakeBus{published: make(chan *entities.SearchEvent, 1)}
	svc := NewSearchAnalyticsService(repo, bus)

	event := &entities.SearchEvent{ID: "evt-1", Mode: entities.RouteMode, ResultCount: 3}
	svc.TrackSearch(context.Background(), event)

	select {
	case got := <-repo.logged:
		assert.Equal(t, "evt-1", got.ID)
	case <-time.After(time.Second):
		t.Fatal("event was never logged")
	}

	select {
	case got := <-bus.published:
		assert.Equal(t, "evt-1", got.ID)
	case <-time.After(time.Second):
		t.Fatal("event was never published")
	}
}

func TestTrackSearch_RepoFailureIsSwallowed(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		logged: make(chan *entities.SearchEvent, 1),
		err:    errors.New("database unavailable"),
	}
	svc := NewSearchAnalyticsService(repo, nil)

	// Must not panic or surface the error to the caller.
	svc.TrackSearch(context.Background(), &entities.SearchEvent{ID: "evt-2"})

	select {
	case <-repo.logged:
	case <-time.After(time.Second):
		t.Fatal("event was never logged")
	}
}

func TestTrackSearch_NilDependenciesAreSafe(t *testing.T) {
	svc := NewSearchAnalyticsService(nil, nil)

	svc.TrackSearch(context.Background(), &entities.SearchEvent{ID: "evt-3"})
	svc.TrackSearch(context.Background(), nil)

	events, err := svc.GetZeroResultSearches(context.Background(), 10)
	require.NoError(t, err)
	assert.Nil(t, events)
}
