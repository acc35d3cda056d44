package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for submitting and tracking runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, envOptions{
			mode:    "serve",
			metrics: metrics.New(nil),
		})
		if err != nil {
			return err
		}
		defer env.Close()

		svc := newRunService(env.Pipeline, env.Store)
		mux := buildMux(svc, promhttp.Handler())
		port := resolvePort(servePort, cfg.Server.Port)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return svc.Work(gctx) })
		g.Go(func() error { return startServer(gctx, mux, port) })
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// runExecutor is the part of the pipeline the API drives.
type runExecutor interface {
	Execute(ctx context.Context, q *model.Query) (*pipeline.Result, error)
}

// runService queues submitted runs and executes them one at a time, in
// submission order, on the goroutine running Work.
type runService struct {
	exec  runExecutor
	store store.Store

	mu      sync.Mutex
	pending []*model.Query
	wake    chan struct{}
}

func newRunService(exec runExecutor, st store.Store) *runService {
	return &runService{exec: exec, store: st, wake: make(chan struct{}, 1)}
}

// Start records q and queues it for execution.
func (s *runService) Start(ctx context.Context, q *model.Query) error {
	if err := store.SaveQuery(ctx, s.store, q); err != nil {
		return err
	}
	s.mu.Lock()
	s.pending = append(s.pending, q)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Work executes queued runs until ctx is canceled. Runs still queued at
// that point are executed with the canceled ctx so they are recorded as
// canceled.
func (s *runService) Work(ctx context.Context) error {
	for {
		if q := s.next(); q != nil {
			s.execute(ctx, q)
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-s.wake:
		}
	}
}

func (s *runService) next() *model.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	q := s.pending[0]
	s.pending = s.pending[1:]
	return q
}

func (s *runService) execute(ctx context.Context, q *model.Query) {
	result, err := s.exec.Execute(ctx, q)
	if err != nil {
		zap.L().Error("api run failed",
			zap.String("query_id", q.QueryID),
			zap.Error(err),
		)
		return
	}
	zap.L().Info("api run complete",
		zap.String("query_id", q.QueryID),
		zap.Int("final_records", len(result.Records)),
	)
}

// buildMux wires the API routes. svc may be nil, in which case run routes
// answer 503. metricsHandler may be nil to omit /metrics.
func buildMux(svc *runService, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			if svc == nil || svc.exec == nil || svc.store == nil {
				writeError(w, http.StatusServiceUnavailable, "pipeline not configured")
				return
			}

			var f model.Filters
			if err := json.NewDecoder(req.Body).Decode(&f); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			f.Normalize()
			if err := f.Validate(); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}

			q := pipeline.NewQuery(f)
			if err := svc.Start(req.Context(), q); err != nil {
				zap.L().Error("api: save query", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "could not record run")
				return
			}

			writeJSON(w, http.StatusAccepted, map[string]string{
				"status":   "accepted",
				"query_id": q.QueryID,
			})
		})

		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			if svc == nil || svc.store == nil {
				writeError(w, http.StatusServiceUnavailable, "store not configured")
				return
			}
			opts := store.ListOptions{
				Limit:  queryInt(req, "limit", 50),
				Offset: queryInt(req, "offset", 0),
			}
			runs, err := store.ListQueries(req.Context(), svc.store, opts)
			if err != nil {
				zap.L().Error("api: list runs", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "could not list runs")
				return
			}
			writeJSON(w, http.StatusOK, runs)
		})

		r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			if svc == nil || svc.store == nil {
				writeError(w, http.StatusServiceUnavailable, "store not configured")
				return
			}
			id := chi.URLParam(req, "id")
			q, err := store.GetQuery(req.Context(), svc.store, id)
			if err != nil {
				zap.L().Error("api: get run", zap.String("query_id", id), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "could not load run")
				return
			}
			if q == nil {
				writeError(w, http.StatusNotFound, "run not found")
				return
			}
			writeJSON(w, http.StatusOK, q)
		})
	})

	return r
}

func queryInt(req *http.Request, key string, def int) int {
	v, err := strconv.Atoi(req.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// resolvePort prefers the flag value over the configured port.
func resolvePort(flag, configured int) int {
	if flag != 0 {
		return flag
	}
	return configured
}

// startServer serves handler on port until ctx is canceled, then shuts down
// gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}
	return nil
}
