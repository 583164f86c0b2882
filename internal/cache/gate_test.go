package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-enrich/internal/model"
	"github.com/sells-group/catalog-enrich/internal/store"
)

type fakeStore struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
	getErr   error
	gets     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: make(map[string]*model.Profile)}
}

func (s *fakeStore) SaveProfile(_ context.Context, p *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.Slug] = p
	return nil
}

func (s *fakeStore) GetProfile(_ context.Context, slug string) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.profiles[slug], nil
}

func (s *fakeStore) ListProfiles(context.Context, store.ProfileFilter) ([]model.Profile, error) {
	return nil, nil
}

func (s *fakeStore) Migrate(context.Context) error { return nil }
func (s *fakeStore) Close() error                  { return nil }

func freshProfile(name, city string) *model.Profile {
	return &model.Profile{
		Slug:       Slug(name, city),
		Name:       name,
		EnrichedAt: time.Now().UTC(),
	}
}

func TestGateMiss(t *testing.T) {
	g := NewGate(newFakeStore(), time.Hour)
	_, ok := g.Lookup(context.Background(), model.Target{Name: "Unknown Place"})
	assert.False(t, ok)
}

func TestGateHitFromStore(t *testing.T) {
	st := newFakeStore()
	require.NoError(t, st.SaveProfile(context.Background(), freshProfile("Marina Heights", "Austin")))

	g := NewGate(st, time.Hour)
	target := model.Target{Name: "Marina Heights", Context: map[string]string{"city": "Austin"}}

	p, ok := g.Lookup(context.Background(), target)
	require.True(t, ok)
	assert.Equal(t, "Marina Heights", p.Name)
}

func TestGateStaleProfileIsMiss(t *testing.T) {
	st := newFakeStore()
	stale := freshProfile("Marina Heights", "")
	stale.EnrichedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, st.SaveProfile(context.Background(), stale))

	g := NewGate(st, 24*time.Hour)
	_, ok := g.Lookup(context.Background(), model.Target{Name: "Marina Heights"})
	assert.False(t, ok)
}

func TestGateMemoryLayerSkipsStore(t *testing.T) {
	st := newFakeStore()
	require.NoError(t, st.SaveProfile(context.Background(), freshProfile("Marina Heights", "")))

	g := NewGate(st, time.Hour)
	target := model.Target{Name: "Marina Heights"}

	_, ok := g.Lookup(context.Background(), target)
	require.True(t, ok)
	first := st.gets

	_, ok = g.Lookup(context.Background(), target)
	require.True(t, ok)
	assert.Equal(t, first, st.gets, "second lookup must be served from memory")
}

func TestGateStoreErrorIsMiss(t *testing.T) {
	st := newFakeStore()
	st.getErr = eris.New("connection refused")

	g := NewGate(st, time.Hour)
	_, ok := g.Lookup(context.Background(), model.Target{Name: "Marina Heights"})
	assert.False(t, ok)
}

func TestGateStoreWarmsMemory(t *testing.T) {
	st := newFakeStore()
	g := NewGate(st, time.Hour)

	p := freshProfile("Marina Heights", "Austin")
	require.NoError(t, g.Store(context.Background(), p))

	target := model.Target{Name: "Marina Heights", Context: map[string]string{"city": "Austin"}}
	got, ok := g.Lookup(context.Background(), target)
	require.True(t, ok)
	assert.Equal(t, p.Slug, got.Slug)
	assert.Zero(t, st.gets, "lookup after Store must hit the memory layer")
}
