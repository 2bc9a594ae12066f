// Package server implements the self-hosted wardwatch notification
// server: the feed, status, ack, and publish endpoints the client
// speaks, plus quiet-hours deferral and a retention job.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/wardwatch/wardwatch/internal/core/config"
	"github.com/wardwatch/wardwatch/internal/core/feed"
	"github.com/wardwatch/wardwatch/internal/core/logging"
)

const shutdownTimeout = 10 * time.Second

// Server serves the notification API.
type Server struct {
	cfg     config.ServeConfig
	store   *Store
	limiter *rate.Limiter
	log     zerolog.Logger

	// now is swappable for quiet-hours tests
	now func() time.Time
}

// New creates a server. The publish rate limit comes from
// cfg.PublishPerMin with a burst of the same size.
func New(cfg config.ServeConfig, store *Store) *Server {
	perMin := cfg.PublishPerMin
	if perMin <= 0 {
		perMin = 60
	}
	return &Server{
		cfg:     cfg,
		store:   store,
		limiter: rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin),
		log:     logging.Component("server"),
		now:     time.Now,
	}
}

// Routes builds the HTTP router.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)

	r.HandleFunc("/api/notifications/", s.handleFeed).Methods(http.MethodGet)
	r.HandleFunc("/api/notifications/status/", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/notifications/", s.csrf(s.handlePublish)).Methods(http.MethodPost)

	r.HandleFunc("/notifications/{id:[0-9]+}/ack/", s.csrf(s.handleAck)).Methods(http.MethodPost)
	r.HandleFunc("/notifications/{id:[0-9]+}/read/", s.csrf(s.handleMarkRead)).Methods(http.MethodPost)
	r.HandleFunc("/notifications/{id:[0-9]+}/unread/", s.csrf(s.handleMarkUnread)).Methods(http.MethodPost)
	r.HandleFunc("/notifications/mark-all-read/", s.csrf(s.handleMarkAllRead)).Methods(http.MethodPost)

	return r
}

// Run serves until the context is cancelled. The retention job runs
// hourly and removes acknowledged notifications past the grace period.
func (s *Server) Run(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc("@hourly", s.runRetention)
	if err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("listen", s.cfg.Listen).Msg("serving notification api")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) runRetention() {
	cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.store.Archive(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("retention sweep failed")
		return
	}
	if n > 0 {
		s.log.Info().Int64("removed", n).Time("cutoff", cutoff).Msg("archived acknowledged notifications")
	}
}

// csrf enforces the double-submit check: the X-CSRFToken header must
// match the token cookie. Token issuance happens on the feed endpoint.
func (s *Server) csrf(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.InsecureNoCSRF {
			next(w, r)
			return
		}

		cookie, err := r.Cookie(s.cfg.CSRFCookie)
		if err != nil || cookie.Value == "" {
			http.Error(w, "missing csrf cookie", http.StatusForbidden)
			return
		}
		if r.Header.Get("X-CSRFToken") != cookie.Value {
			http.Error(w, "csrf token mismatch", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	s.issueToken(w, r)

	var sinceID int64
	if raw := r.URL.Query().Get("since_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid since_id", http.StatusBadRequest)
			return
		}
		sinceID = parsed
	}

	result, err := s.store.Feed(r.Context(), sinceID, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("feed query failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.store.Status(r.Context(), s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("status query failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

type publishRequest struct {
	Level   string `json:"level"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type publishResponse struct {
	ID        int64  `json:"id"`
	VisibleAt string `json:"visible_at"`
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	now := s.now()
	visibleAt := NextVisible(now, s.cfg.QuietHours)

	id, err := s.store.Publish(r.Context(), feed.ParseLevel(req.Level), req.Kind, req.Message, now, visibleAt)
	if err != nil {
		s.log.Error().Err(err).Msg("publish failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.log.Info().Int64("id", id).Str("level", string(feed.ParseLevel(req.Level))).Msg("notification published")
	s.writeJSON(w, http.StatusCreated, publishResponse{
		ID:        id,
		VisibleAt: visibleAt.Format(time.RFC3339),
	})
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	s.stampByID(w, r, func(ctx context.Context, id int64) (bool, error) {
		return s.store.Ack(ctx, id, s.now())
	})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	s.stampByID(w, r, func(ctx context.Context, id int64) (bool, error) {
		return s.store.MarkRead(ctx, id, s.now())
	})
}

func (s *Server) handleMarkUnread(w http.ResponseWriter, r *http.Request) {
	s.stampByID(w, r, func(ctx context.Context, id int64) (bool, error) {
		return s.store.MarkUnread(ctx, id)
	})
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.MarkAllRead(r.Context(), s.now()); err != nil {
		s.log.Error().Err(err).Msg("mark all read failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) stampByID(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64) (bool, error)) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	found, err := fn(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Int64("id", id).Msg("notification update failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// issueToken sets the CSRF cookie when the request does not carry one,
// so any client that fetched the feed can ack.
func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	if s.cfg.InsecureNoCSRF {
		return
	}
	if _, err := r.Cookie(s.cfg.CSRFCookie); err == nil {
		return
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		s.log.Error().Err(err).Msg("csrf token generation failed")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CSRFCookie,
		Value:    hex.EncodeToString(buf),
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("response encode failed")
	}
}
