package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/terraces/pkg/errors"
	tio "github.com/matzehuels/terraces/pkg/io"
	"github.com/matzehuels/terraces/pkg/observability"
	"github.com/matzehuels/terraces/pkg/pipeline"
	"github.com/matzehuels/terraces/pkg/terrace"
)

const (
	// maxRequestBytes bounds the request body of POST /v1/analyze.
	maxRequestBytes = 16 << 20

	// defaultServerMaxTrees bounds enumeration over HTTP when neither the
	// request nor the config sets a budget.
	defaultServerMaxTrees = 10_000

	// maxStoredAnalyses and analysisTTL bound the analyses kept for
	// GET /v1/analyses/{id}. The oldest are dropped first.
	maxStoredAnalyses = 1000
	analysisTTL       = 24 * time.Hour

	shutdownTimeout = 5 * time.Second
)

// serveCommand creates the serve command, which exposes the analysis
// pipeline over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve terrace analyses over HTTP",
		Long: `Serve terrace analyses over HTTP.

Endpoints:
  POST /v1/analyze          run an analysis, body: {"newick", "matrix", "root", "modes", "terrace"}
  GET  /v1/analyses/{id}    fetch a stored analysis
  GET  /healthz             liveness check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := newServer(runner, c.Config.Terrace, c.Logger)
			return srv.listen(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")
	return cmd
}

// analysis is a stored analysis as returned by the API.
type analysis struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Report    tio.Report `json:"report"`
}

type server struct {
	runner   *pipeline.Runner
	defaults terrace.Options
	logger   *log.Logger

	mu       sync.RWMutex
	analyses map[string]*analysis
	order    []string // analysis IDs, oldest first
	limit    int
	ttl      time.Duration
	now      func() time.Time
}

func newServer(runner *pipeline.Runner, defaults terrace.Options, logger *log.Logger) *server {
	if defaults.Budget.MaxTrees == 0 {
		defaults.Budget.MaxTrees = defaultServerMaxTrees
	}
	return &server{
		runner:   runner,
		defaults: defaults,
		logger:   logger,
		analyses: make(map[string]*analysis),
		limit:    maxStoredAnalyses,
		ttl:      analysisTTL,
		now:      time.Now,
	}
}

// put stores a and drops analyses that are expired or over the limit.
func (s *server) put(a *analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.analyses[a.ID] = a
	s.order = append(s.order, a.ID)
	for len(s.order) > 0 {
		oldest := s.analyses[s.order[0]]
		if len(s.order) <= s.limit && !s.expired(oldest) {
			break
		}
		delete(s.analyses, s.order[0])
		s.order = s.order[1:]
	}
}

// get returns a stored analysis that has not expired.
func (s *server) get(id string) (*analysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.analyses[id]
	if !ok || s.expired(a) {
		return nil, false
	}
	return a, true
}

func (s *server) expired(a *analysis) bool {
	return s.now().Sub(a.CreatedAt) > s.ttl
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
	})
	return r
}

func (s *server) listen(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	printSuccess("Listening on %s", StyleLink.Render("http://"+displayAddr(addr)))

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var opts pipeline.Options
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeError(w, errors.Wrap(errors.ErrCodeBudgetExceeded, err, "request body exceeds %d bytes", maxRequestBytes))
			return
		}
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	opts.Terrace = s.withDefaults(opts.Terrace)

	var trees []string
	if opts.Modes.Has(pipeline.ModeEnumerate) {
		opts.Sink = terrace.SinkFunc(func(newick string) error {
			trees = append(trees, newick)
			return nil
		})
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	a := &analysis{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Report:    res.Report(),
	}
	a.Report.Trees = trees

	s.put(a)

	w.Header().Set("Location", "/v1/analyses/"+a.ID)
	writeJSON(w, http.StatusCreated, a)
}

func (s *server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateAnalysisID(id); err != nil {
		writeError(w, err)
		return
	}

	a, ok := s.get(id)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "analysis %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// withDefaults fills engine options the request left unset.
func (s *server) withDefaults(o terrace.Options) terrace.Options {
	if o.ParallelThreshold == 0 {
		o.ParallelThreshold = s.defaults.ParallelThreshold
	}
	if o.Workers == 0 {
		o.Workers = s.defaults.Workers
	}
	if o.Strategy == "" {
		o.Strategy = s.defaults.Strategy
	}
	if o.Budget.MaxTrees == 0 {
		o.Budget.MaxTrees = s.defaults.Budget.MaxTrees
	}
	return o
}

// logRequests logs each request and reports it to the server hooks.
func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			s.logger.Debug("request",
				"method", r.Method,
				"route", route,
				"status", status,
				"duration", elapsed,
				"request_id", middleware.GetReqID(r.Context()))
			observability.Server().OnRequest(r.Context(), r.Method, route, status, elapsed)
		}()
		next.ServeHTTP(ww, r)
	})
}

type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	var body errorBody
	body.Error.Code = errors.GetCode(err)
	if body.Error.Code == "" {
		body.Error.Code = errors.ErrCodeInternal
	}
	body.Error.Message = errors.UserMessage(err)
	writeJSON(w, errors.HTTPStatus(err), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
