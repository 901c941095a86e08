package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innovaradar/internal/domain/source"
)

type fakeSourceStore struct {
	sources []source.Source
	added   []source.Source
	status  map[int64]bool
}

func (f *fakeSourceStore) FetchSources(ctx context.Context) ([]source.Source, error) {
	return f.sources, nil
}

func (f *fakeSourceStore) AddSource(ctx context.Context, src source.Source) (source.Source, error) {
	f.added = append(f.added, src)
	src.ID = 9
	return src, nil
}

func (f *fakeSourceStore) DeleteSource(ctx context.Context, id int64) error {
	return nil
}

func (f *fakeSourceStore) UpdateSourceStatus(ctx context.Context, id int64, active bool) error {
	if f.status == nil {
		f.status = make(map[int64]bool)
	}
	f.status[id] = active
	return nil
}

func sourceRouter(store SourceStore) *chi.Mux {
	h := NewSourceHandler(store)
	r := chi.NewRouter()
	r.Get("/sources", h.GetSources)
	r.Post("/sources", h.AddSource)
	r.Delete("/sources/{id}", h.DeleteSource)
	r.Put("/sources/{id}/status", h.UpdateSourceStatus)
	return r
}

func TestAddSource_DefaultsToActive(t *testing.T) {
	store := &fakeSourceStore{}
	router := sourceRouter(store)

	body := `{"name": "TechCrunch AI", "url": "https://techcrunch.com/feed/", "category": "ai"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sources", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.added, 1)
	assert.True(t, store.added[0].IsActive)
	assert.Equal(t, "TechCrunch AI", store.added[0].Name)
}

func TestAddSource_MissingURL(t *testing.T) {
	router := sourceRouter(&fakeSourceStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sources", strings.NewReader(`{"name": "No URL"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateSourceStatus(t *testing.T) {
	store := &fakeSourceStore{}
	router := sourceRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/sources/5/status", strings.NewReader(`{"is_active": false}`)))

	require.Equal(t, http.StatusNoContent, rec.Code)
	active, ok := store.status[5]
	require.True(t, ok)
	assert.False(t, active)
}
