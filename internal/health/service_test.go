package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	name       string
	configured bool
	err        error
}

func (f *fakeChecker) Name() string                   { return f.name }
func (f *fakeChecker) IsConfigured() bool             { return f.configured }
func (f *fakeChecker) Test(ctx context.Context) error { return f.err }

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []HealthItem
}

func (r *recordingBroadcaster) Broadcast(msgType string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msgType == EventHealthUpdated {
		r.events = append(r.events, payload.(HealthItem))
	}
	return nil
}

func TestService_Test(t *testing.T) {
	svc := NewService(zerolog.Nop())
	b := &recordingBroadcaster{}
	svc.SetBroadcaster(b)

	tmdb := &fakeChecker{name: "TMDB", configured: true}
	omdb := &fakeChecker{name: "OMDb", configured: true, err: errors.New("unexpected status 401")}
	openai := &fakeChecker{name: "openai"}
	svc.Register("tmdb", tmdb)
	svc.Register("omdb", omdb)
	svc.Register("openai", openai)

	err := svc.Test(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OMDb: unexpected status 401")

	resp := svc.GetAll()
	assert.True(t, resp.HasIssues)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, "tmdb", resp.Items[0].ID)
	assert.Equal(t, StatusOK, resp.Items[0].Status)
	assert.Equal(t, StatusError, resp.Items[1].Status)
	assert.Equal(t, "unexpected status 401", resp.Items[1].Message)
	assert.NotNil(t, resp.Items[1].Timestamp)
	assert.Equal(t, StatusWarning, resp.Items[2].Status)
	assert.Len(t, b.events, 2)

	// Recovery clears the message and broadcasts once.
	omdb.err = nil
	require.NoError(t, svc.TestItem(context.Background(), "omdb"))
	item := svc.GetItem("omdb")
	require.NotNil(t, item)
	assert.Equal(t, StatusOK, item.Status)
	assert.Nil(t, item.Timestamp)
	assert.Len(t, b.events, 3)

	require.NoError(t, svc.TestItem(context.Background(), "omdb"))
	assert.Len(t, b.events, 3)
}

func TestService_UnknownItem(t *testing.T) {
	svc := NewService(zerolog.Nop())
	assert.Error(t, svc.TestItem(context.Background(), "nope"))
	assert.Nil(t, svc.GetItem("nope"))
	svc.SetError("nope", "ignored")
	assert.Empty(t, svc.GetAll().Items)
}

func TestHealthItem_MarshalOmitsDetailsWhenOK(t *testing.T) {
	data, err := json.Marshal(HealthItem{ID: "tmdb", Name: "TMDB", Status: StatusOK, Message: "stale"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"tmdb","name":"TMDB","status":"ok"}`, string(data))
}

func TestHandlers(t *testing.T) {
	svc := NewService(zerolog.Nop())
	svc.Register("tmdb", &fakeChecker{name: "TMDB", configured: true, err: errors.New("down")})

	e := echo.New()
	NewHandlers(svc).RegisterRoutes(e.Group("/api/v1/health"))

	serve := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec
	}

	rec := serve(http.MethodGet, "/api/v1/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[{"id":"tmdb","name":"TMDB","status":"ok"}],"hasIssues":false}`, rec.Body.String())

	rec = serve(http.MethodPost, "/api/v1/health/tmdb/test")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"error"`)

	rec = serve(http.MethodPost, "/api/v1/health/test")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"hasIssues":true`)

	rec = serve(http.MethodPost, "/api/v1/health/nope/test")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
