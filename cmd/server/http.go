package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"teahouse.bot/internal/teahouse/model"
	"teahouse.bot/internal/teahouse/store"
	"teahouse.bot/internal/teahouse/tasks"
	"teahouse.bot/internal/transport/ws"
)

type api struct {
	opener store.Opener
	engine *tasks.Engine
	mirror *mirrorRuntime
	// verifier guards /v1/users; nil closes those routes.
	verifier *ws.TokenVerifier
	log      zerolog.Logger
}

func (a *api) routes(r *mux.Router) {
	r.HandleFunc("/healthz", a.healthz).Methods(http.MethodGet)
	r.HandleFunc("/metrics", a.metrics).Methods(http.MethodGet)

	users := r.PathPrefix("/v1/users").Subrouter()
	users.Use(a.requireToken)
	users.HandleFunc("/{user}/tasks", a.userTasks).Methods(http.MethodGet)
}

// requireToken accepts a bearer token issued for the gateway.
func (a *api) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if a.verifier == nil {
			writeJSON(rw, http.StatusForbidden, map[string]any{"error": "api disabled: no jwt_secret configured"})
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeJSON(rw, http.StatusUnauthorized, map[string]any{"error": "bearer token required"})
			return
		}
		sub, err := a.verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			a.log.Warn().Err(err).Str("path", r.URL.Path).Msg("api token rejected")
			writeJSON(rw, http.StatusUnauthorized, map[string]any{"error": "invalid token"})
			return
		}
		a.log.Debug().Str("subject", sub).Str("path", r.URL.Path).Msg("api request")
		next.ServeHTTP(rw, r)
	})
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func (a *api) healthz(rw http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.opener.Ping(ctx); err != nil {
		writeJSON(rw, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"ok": true})
}

type tasksResponse struct {
	UserID string       `json:"user_id"`
	Day    string       `json:"day"`
	Tasks  []model.Task `json:"tasks"`
}

// userTasks lists a user's tasks, seeding the catalog first.
func (a *api) userTasks(rw http.ResponseWriter, r *http.Request) {
	user := mux.Vars(r)["user"]
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, err := a.opener.Open(ctx, user)
	if err != nil {
		a.log.Warn().Err(err).Str("user_id", user).Msg("open session")
		writeJSON(rw, http.StatusServiceUnavailable, map[string]any{"error": "store unavailable"})
		return
	}
	defer sess.Close()

	if err := a.engine.EnsureCatalog(ctx, sess); err != nil {
		a.log.Warn().Err(err).Str("user_id", user).Msg("ensure catalog")
	}
	all, err := sess.Tasks().ListTasks(ctx)
	if err != nil {
		a.log.Error().Err(err).Str("user_id", user).Msg("list tasks")
		writeJSON(rw, http.StatusInternalServerError, map[string]any{"error": "list tasks failed"})
		return
	}
	if all == nil {
		all = []model.Task{}
	}
	writeJSON(rw, http.StatusOK, tasksResponse{
		UserID: user,
		Day:    a.engine.Today().Format(time.DateOnly),
		Tasks:  all,
	})
}

func (a *api) metrics(rw http.ResponseWriter, _ *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
	s, ok := a.mirror.Stats()
	if !ok {
		return
	}
	gauge := func(name, help string, v any) {
		fmt.Fprintf(rw, "# HELP teahouse_ledger_mirror_%s %s\n", name, help)
		fmt.Fprintf(rw, "# TYPE teahouse_ledger_mirror_%s gauge\n", name)
		fmt.Fprintf(rw, "teahouse_ledger_mirror_%s %v\n", name, v)
	}
	counter := func(name, help string, v uint64) {
		fmt.Fprintf(rw, "# HELP teahouse_ledger_mirror_%s %s\n", name, help)
		fmt.Fprintf(rw, "# TYPE teahouse_ledger_mirror_%s counter\n", name)
		fmt.Fprintf(rw, "teahouse_ledger_mirror_%s %d\n", name, v)
	}
	gauge("pending", "Segments waiting for upload.", s.Pending)
	counter("shipped_total", "Segments uploaded.", s.Shipped)
	counter("failed_total", "Segments that failed every upload attempt.", s.Failed)
	counter("dropped_total", "Segments left for backfill because the queue was full.", s.Dropped)
	gauge("last_shipped_unix", "Unix time of the last upload.", s.LastShippedUnix)
}
