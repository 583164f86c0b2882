package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-enrich/internal/geo"
	"github.com/sells-group/catalog-enrich/internal/model"
	"github.com/sells-group/catalog-enrich/internal/store"
	"github.com/sells-group/catalog-enrich/internal/stream"
	"github.com/sells-group/catalog-enrich/internal/worklist"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the enrichment HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnrich(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/api/enrich/bulk", handleBulk(env))
		r.Post("/api/enrich/resume", handleResume(env))
		r.Get("/api/profiles", handleListProfiles(env))
		r.Get("/api/profiles/near", handleProfilesNear(env))
		r.Get("/api/profiles/{slug}", handleGetProfile(env))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// handleBulk runs a batch and streams one JSON event per line. The
// body is either {"targets":[...]} or a raw work list (csv, json,
// text) selected by ?format=. The response stays open for the life of
// the batch; cooldown events carry the request id a separate resume
// call needs.
func handleBulk(env *enrichEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var targets []model.Target

		if format := r.URL.Query().Get("format"); format != "" {
			parsed, err := worklist.Parse(r.Body, format)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			targets = parsed
		} else {
			var req struct {
				Targets []model.Target `json:"targets"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			targets = req.Targets
		}
		if len(targets) == 0 {
			writeError(w, http.StatusBadRequest, "targets is required")
			return
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)

		em := stream.NewLineEmitter(w)
		if _, err := env.Orchestrator.Run(r.Context(), targets, em); err != nil {
			// The stream is already committed; all we can do is log.
			zap.L().Warn("bulk stream aborted", zap.Error(err))
		}
	}
}

// handleResume ends a cooldown early. Unknown or already-resolved ids
// report success:false with a 200 — resuming twice is not an error.
func handleResume(env *enrichEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RequestID string `json:"requestId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RequestID == "" {
			writeError(w, http.StatusBadRequest, "requestId is required")
			return
		}

		resumed := env.Coordinator.Resume(req.RequestID)
		writeJSON(w, http.StatusOK, map[string]bool{"success": resumed})
	}
}

func handleGetProfile(env *enrichEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		p, err := env.Store.GetProfile(r.Context(), slug)
		if err != nil {
			zap.L().Error("get profile failed", zap.String("slug", slug), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "store error")
			return
		}
		if p == nil {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleListProfiles(env *enrichEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := store.ProfileFilter{
			Kind: r.URL.Query().Get("kind"),
			City: r.URL.Query().Get("city"),
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			filter.Limit, _ = strconv.Atoi(v)
		}
		if v := r.URL.Query().Get("offset"); v != "" {
			filter.Offset, _ = strconv.Atoi(v)
		}

		profiles, err := env.Store.ListProfiles(r.Context(), filter)
		if err != nil {
			zap.L().Error("list profiles failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "store error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles, "count": len(profiles)})
	}
}

// handleProfilesNear filters stored profiles by great-circle distance
// from a query point. Profiles without coordinates never match.
func handleProfilesNear(env *enrichEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
		lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
		if errLat != nil || errLng != nil {
			writeError(w, http.StatusBadRequest, "lat and lng are required")
			return
		}
		radiusKm := 5.0
		if v := r.URL.Query().Get("radiusKm"); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
				radiusKm = parsed
			}
		}

		profiles, err := env.Store.ListProfiles(r.Context(), store.ProfileFilter{})
		if err != nil {
			zap.L().Error("list profiles failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "store error")
			return
		}

		origin := geo.Point(lng, lat)
		var near []model.Profile
		for _, p := range profiles {
			if p.Location.Latitude == 0 && p.Location.Longitude == 0 {
				continue
			}
			if geo.WithinKm(origin, geo.Point(p.Location.Longitude, p.Location.Latitude), radiusKm) {
				near = append(near, p)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"profiles": near, "count": len(near)})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
