// CLAUDE:SUMMARY Entry point for the tracking daemon — chi JSON API, scheduler, optional MCP stdio.
// Command scribd is the writing-progress tracking daemon. It schedules
// update cycles over the configured Overleaf projects and serves the
// chart-ready JSON API.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/scrib/dbopen"
	"github.com/hazyhaar/scrib/gitsync"
	"github.com/hazyhaar/scrib/kit"
	"github.com/hazyhaar/scrib/samples"
	"github.com/hazyhaar/scrib/series"
	"github.com/hazyhaar/scrib/texdoc"
	"github.com/hazyhaar/scrib/tracker"
)

func main() {
	port := env("PORT", "8090")
	dbPath := env("SAMPLES_DB", "db/samples.db")
	configPath := env("CONFIG_FILE", "config.yaml")
	cloneDir := env("CLONE_DIR", "data/clones")
	displayTZ := env("DISPLAY_TZ", "Europe/Berlin")
	mcpTransport := env("MCP_TRANSPORT", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	loc, err := time.LoadLocation(displayTZ)
	if err != nil {
		slog.Error("invalid DISPLAY_TZ", "tz", displayTZ, "error", err)
		os.Exit(1)
	}

	db, err := dbopen.Open(dbPath, dbopen.WithMkdirAll(), dbopen.WithSchema(samples.Schema))
	if err != nil {
		slog.Error("samples db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg, err := tracker.LoadConfig(configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	runlog := tracker.NewRunLog(db)
	if err := runlog.EnsureTable(ctx); err != nil {
		slog.Error("run log init", "error", err)
		os.Exit(1)
	}
	lease := tracker.NewLease(db, "update", 10*time.Minute)
	if err := lease.EnsureTable(ctx); err != nil {
		slog.Error("run lease init", "error", err)
		os.Exit(1)
	}

	syncer := gitsync.New(cloneDir, cfg.Tokens(), logger)
	extractor := texdoc.New(texdoc.Config{}, logger)
	store := &samples.Store{DB: db}

	svc := tracker.NewService(cfg, syncer, extractor, store, runlog, lease, loc, logger)

	// Scheduler.
	go tracker.NewScheduler(svc).Run(ctx)

	// Optional MCP over stdio.
	if mcpTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "scrib",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		go func() {
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("mcp server", "error", err)
			}
		}()
	}

	r := router(svc)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port, "tz", displayTZ)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown", "error", err)
	}
}

func router(svc *tracker.Service) chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, svc.Config().Projects())
		})

		r.Post("/projects", func(w http.ResponseWriter, r *http.Request) {
			var p tracker.Project
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				writeError(w, 400, err)
				return
			}
			added, err := svc.Config().AddProject(p)
			if err != nil {
				if errors.Is(err, tracker.ErrProjectExists) {
					writeError(w, 409, err)
					return
				}
				writeError(w, 400, err)
				return
			}
			writeJSON(w, 201, added)
		})

		r.Delete("/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if err := svc.DeleteProject(r.Context(), id); err != nil {
				if errors.Is(err, tracker.ErrProjectNotFound) {
					writeError(w, 404, err)
					return
				}
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, map[string]string{"status": "deleted"})
		})

		r.Get("/projects/{id}/summary", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			sum, err := svc.ProjectSummary(r.Context(), id)
			if err != nil {
				if errors.Is(err, tracker.ErrProjectNotFound) {
					writeError(w, 404, err)
					return
				}
				writeError(w, 500, err)
				return
			}
			if sum == nil {
				writeJSON(w, 200, map[string]any{"total_measurements": 0})
				return
			}
			writeJSON(w, 200, sum)
		})

		r.Get("/series/{metric}", func(w http.ResponseWriter, r *http.Request) {
			metric, err := parseMetric(chi.URLParam(r, "metric"))
			if err != nil {
				writeError(w, 400, err)
				return
			}
			m, err := svc.SeriesMatrix(r.Context(), metric)
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, m)
		})

		r.Get("/series/{metric}/daily", func(w http.ResponseWriter, r *http.Request) {
			metric, err := parseMetric(chi.URLParam(r, "metric"))
			if err != nil {
				writeError(w, 400, err)
				return
			}
			d, err := svc.DailyMatrix(r.Context(), metric)
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, d)
		})

		r.Get("/series/{metric}/daily/avg", func(w http.ResponseWriter, r *http.Request) {
			metric, err := parseMetric(chi.URLParam(r, "metric"))
			if err != nil {
				writeError(w, 400, err)
				return
			}
			d, err := svc.DailyMatrix(r.Context(), metric)
			if err != nil {
				writeError(w, 500, err)
				return
			}
			window := queryInt(r, "window", 7)
			writeJSON(w, 200, map[string]any{
				"days":    d.Days,
				"columns": d.Columns,
				"cells":   series.MovingAverage(d, window),
				"window":  window,
			})
		})

		r.Get("/productivity", func(w http.ResponseWriter, r *http.Request) {
			st, err := svc.ProductivityStats(r.Context())
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, st)
		})

		r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, svc.Status())
		})

		r.Post("/update", func(w http.ResponseWriter, _ *http.Request) {
			if svc.Status().Running {
				writeJSON(w, 409, map[string]string{"status": "already running"})
				return
			}
			// Run in the background; the report lands in /api/status. A lost
			// race against the scheduler resolves to ErrRunInProgress inside
			// RunAll, never to a duplicate cycle.
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
				defer cancel()
				if _, err := svc.RunAll(ctx); err != nil && !errors.Is(err, tracker.ErrRunInProgress) {
					slog.Error("manual update failed", "error", err)
				}
			}()
			writeJSON(w, 202, map[string]string{"status": "update started"})
		})

		r.Get("/interval", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, map[string]any{
				"update_interval_minutes": int(svc.Config().UpdateInterval().Minutes()),
			})
		})

		r.Put("/interval", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				UpdateIntervalMinutes int `json:"update_interval_minutes"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, 400, err)
				return
			}
			if err := svc.Config().SetUpdateInterval(req.UpdateIntervalMinutes); err != nil {
				writeError(w, 400, err)
				return
			}
			writeJSON(w, 200, map[string]any{
				"update_interval_minutes": req.UpdateIntervalMinutes,
			})
		})
	})

	return r
}

// requestID tags each request with an id, honouring an inbound X-Request-Id.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			var b [8]byte
			rand.Read(b[:])
			id = hex.EncodeToString(b[:])
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(kit.WithRequestID(r.Context(), id)))
	})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("request",
			"method", r.Method, "path", r.URL.Path,
			"request_id", kit.GetRequestID(r.Context()),
			"duration", time.Since(start).Round(time.Microsecond))
	})
}

func parseMetric(s string) (series.Metric, error) {
	switch s {
	case "words", "word_count":
		return series.MetricWords, nil
	case "pages", "page_count":
		return series.MetricPages, nil
	}
	return "", fmt.Errorf("unknown metric %q (want words or pages)", s)
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
