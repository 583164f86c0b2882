package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-enrich/internal/cooldown"
	"github.com/sells-group/catalog-enrich/internal/model"
	"github.com/sells-group/catalog-enrich/internal/store"
)

type stubStore struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
}

func newStubStore() *stubStore {
	return &stubStore{profiles: make(map[string]*model.Profile)}
}

func (s *stubStore) SaveProfile(_ context.Context, p *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.Slug] = p
	return nil
}

func (s *stubStore) GetProfile(_ context.Context, slug string) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[slug], nil
}

func (s *stubStore) ListProfiles(_ context.Context, filter store.ProfileFilter) ([]model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Profile
	for _, p := range s.profiles {
		if filter.Kind != "" && p.Kind != filter.Kind {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubStore) Migrate(context.Context) error { return nil }
func (s *stubStore) Close() error                  { return nil }

func testEnv(t *testing.T) *enrichEnv {
	t.Helper()
	return &enrichEnv{
		Store:       newStubStore(),
		Coordinator: cooldown.NewCoordinator(time.Minute),
	}
}

func TestHandleResume(t *testing.T) {
	env := testEnv(t)
	token := env.Coordinator.Begin()

	call := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/enrich/resume", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handleResume(env)(rec, req)
		return rec
	}

	rec := call(`{"requestId":"` + token.ID() + `"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	// Second resume of the same token is a non-error failure.
	rec = call(`{"requestId":"` + token.ID() + `"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false}`, rec.Body.String())
}

func TestHandleResumeUnknownID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/enrich/resume", strings.NewReader(`{"requestId":"nope"}`))
	handleResume(testEnv(t))(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false}`, rec.Body.String())
}

func TestHandleResumeBadBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/enrich/resume", strings.NewReader("{"))
	handleResume(testEnv(t))(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetProfile(t *testing.T) {
	env := testEnv(t)
	require.NoError(t, env.Store.SaveProfile(context.Background(), &model.Profile{
		Slug: "marina-heights",
		Name: "Marina Heights",
	}))

	r := chi.NewRouter()
	r.Get("/api/profiles/{slug}", handleGetProfile(env))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profiles/marina-heights", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Marina Heights"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profiles/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleProfilesNear(t *testing.T) {
	env := testEnv(t)
	require.NoError(t, env.Store.SaveProfile(context.Background(), &model.Profile{
		Slug:     "downtown",
		Location: model.Location{Latitude: 30.2672, Longitude: -97.7431},
	}))
	require.NoError(t, env.Store.SaveProfile(context.Background(), &model.Profile{
		Slug:     "far-away",
		Location: model.Location{Latitude: 32.7767, Longitude: -96.7970},
	}))
	require.NoError(t, env.Store.SaveProfile(context.Background(), &model.Profile{
		Slug: "no-coords",
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/profiles/near?lat=30.27&lng=-97.74&radiusKm=10", nil)
	handleProfilesNear(env)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"downtown"`)
	assert.NotContains(t, body, `"far-away"`)
	assert.NotContains(t, body, `"no-coords"`)
}

func TestHandleProfilesNearMissingParams(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/profiles/near", nil)
	handleProfilesNear(testEnv(t))(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
