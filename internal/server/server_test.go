package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardwatch/wardwatch/internal/core/config"
	"github.com/wardwatch/wardwatch/internal/core/feed"
	"github.com/wardwatch/wardwatch/internal/data/db"
)

func newTestServer(t *testing.T, cfg config.ServeConfig) *Server {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	if cfg.CSRFCookie == "" {
		cfg.CSRFCookie = "csrftoken"
	}
	if cfg.PublishPerMin == 0 {
		cfg.PublishPerMin = 600
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 7
	}
	return New(cfg, NewStore(database))
}

func publish(t *testing.T, srv *Server, level, message string) int64 {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"level": level, "message": message})
	req := httptest.NewRequest(http.MethodPost, "/api/notifications/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp publishResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func getFeed(t *testing.T, srv *Server, query string) feed.Feed {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications/"+query, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out feed.Feed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestServerFeed(t *testing.T) {
	t.Run("empty feed", func(t *testing.T) {
		srv := newTestServer(t, config.ServeConfig{InsecureNoCSRF: true})

		got := getFeed(t, srv, "")
		assert.Empty(t, got.Items)
		assert.Zero(t, got.LatestID)
	})

	t.Run("published items appear with latest_id", func(t *testing.T) {
		srv := newTestServer(t, config.ServeConfig{InsecureNoCSRF: true})
		publish(t, srv, "info", "shift change")
		id2 := publish(t, srv, "critical", "code blue")

		got := getFeed(t, srv, "")
		require.Len(t, got.Items, 2)
		assert.Equal(t, id2, got.LatestID)
		assert.Equal(t, "code blue", got.Items[1].Message)
	})

	t.Run("since_id filters older items", func(t *testing.T) {
		srv := newTestServer(t, config.ServeConfig{InsecureNoCSRF: true})
		id1 := publish(t, srv, "info", "first")
		publish(t, srv, "info", "second")

		got := getFeed(t, srv, "?since_id="+int64Str(id1))
		require.Len(t, got.Items, 1)
		assert.Equal(t, "second", got.Items[0].Message)
	})

	t.Run("invalid since_id is rejected", func(t *testing.T) {
		srv := newTestServer(t, config.ServeConfig{InsecureNoCSRF: true})

		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications/?since_id=abc", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("feed issues a csrf cookie", func(t *testing.T) {
		srv := newTestServer(t, config.ServeConfig{})

		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications/", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "csrftoken", cookies[0].Name)
		assert.NotEmpty(t, cookies[0].Value)
	})
}

func TestServerAck(t *testing.T) {
	t.Run("ack hides the item but latest_id keeps covering it", func(t *testing.T) {
		srv := newTestServer(t, config.ServeConfig{InsecureNoCSRF: true})
		id := publish(t, srv, "warning", "bed 4 vitals overdue")

		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notifications/"+int64Str(id)+"/ack/", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)

		got := getFeed(t, srv, "")
		assert.Empty(t, got.Items)
		assert.Equal(t, id, got.LatestID)
	})

	t.Run("repeat ack is a no-op success", func(t *testing.T) {
		srv := newTestServer(t, config.ServeConfig{InsecureNoCSRF: true})
		id := publish(t, srv, "info", "m")

		for range 2 {
			rec := httptest.NewRecorder()
			srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notifications/"+int64Str(id)+"/ack/", nil))
			assert.Equal(t, http.StatusNoContent, rec.Code)
		}
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		srv := newTestServer(t, config.ServeConfig{InsecureNoCSRF: true})

		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notifications/999/ack/", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServerCSRF(t *testing.T) {
	srv := newTestServer(t, config.ServeConfig{})

	t.Run("rejected without cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notifications/1/ack/", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("rejected on header mismatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/notifications/1/ack/", nil)
		req.AddCookie(&http.Cookie{Name: "csrftoken", Value: "tok"})
		req.Header.Set("X-CSRFToken", "other")

		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("accepted when header matches cookie", func(t *testing.T) {
		withToken := newTestServer(t, config.ServeConfig{})
		// publish needs csrf too
		body, _ := json.Marshal(map[string]string{"level": "info", "message": "m"})
		req := httptest.NewRequest(http.MethodPost, "/api/notifications/", bytes.NewReader(body))
		req.AddCookie(&http.Cookie{Name: "csrftoken", Value: "tok"})
		req.Header.Set("X-CSRFToken", "tok")

		rec := httptest.NewRecorder()
		withToken.Routes().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

func TestServerStatus(t *testing.T) {
	srv := newTestServer(t, config.ServeConfig{InsecureNoCSRF: true})
	publish(t, srv, "info", "a")
	publish(t, srv, "info", "b")

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications/status/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status feed.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 2, status.UnreadCount)
}

func TestServerPublish(t *testing.T) {
	t.Run("empty message is rejected", func(t *testing.T) {
		srv := newTestServer(t, config.ServeConfig{InsecureNoCSRF: true})

		body, _ := json.Marshal(map[string]string{"level": "info"})
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/", bytes.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rate limit returns 429", func(t *testing.T) {
		srv := newTestServer(t, config.ServeConfig{InsecureNoCSRF: true, PublishPerMin: 1})
		publish(t, srv, "info", "first")

		body, _ := json.Marshal(map[string]string{"level": "info", "message": "second"})
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/", bytes.NewReader(body)))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("quiet hours defer visibility", func(t *testing.T) {
		srv := newTestServer(t, config.ServeConfig{
			InsecureNoCSRF: true,
			QuietHours:     config.QuietHours{Start: "00:00", End: "23:59"},
		})
		publish(t, srv, "info", "deferred")

		got := getFeed(t, srv, "")
		assert.Empty(t, got.Items)
		assert.Zero(t, got.LatestID)
	})
}

func TestServerMarkRead(t *testing.T) {
	srv := newTestServer(t, config.ServeConfig{InsecureNoCSRF: true})
	id := publish(t, srv, "info", "m")

	for _, path := range []string{
		"/notifications/" + int64Str(id) + "/read/",
		"/notifications/" + int64Str(id) + "/unread/",
		"/notifications/mark-all-read/",
	} {
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code, path)
	}
}

func TestServerRetention(t *testing.T) {
	srv := newTestServer(t, config.ServeConfig{InsecureNoCSRF: true, RetentionDays: 7})
	id := publish(t, srv, "info", "old news")

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notifications/"+int64Str(id)+"/ack/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	// pretend eight days pass
	srv.now = func() time.Time { return time.Now().AddDate(0, 0, 8) }
	srv.runRetention()
	srv.now = time.Now

	got := getFeed(t, srv, "")
	assert.Zero(t, got.LatestID)
}

func TestServerHealthz(t *testing.T) {
	srv := newTestServer(t, config.ServeConfig{})

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func int64Str(id int64) string {
	return strconv.FormatInt(id, 10)
}
