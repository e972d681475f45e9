// Package server exposes the evaluator over HTTP: an interactive websocket
// session on /ws, single renders on /image.png and a health probe.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/time/rate"

	mandel "github.com/marben/mandelview"
	"github.com/marben/mandelview/internal/export"
	"github.com/marben/mandelview/internal/landmarks"
	"github.com/marben/mandelview/internal/logging"
	"github.com/marben/mandelview/internal/palette"
	"github.com/marben/mandelview/internal/view"
)

// Server holds what every session starts from.
type Server struct {
	eval      mandel.Evaluator
	base      mandel.Domain
	settings  view.Settings
	scheme    palette.Cycle
	catalog   landmarks.Catalog
	fps       float64
	burst     int
	maxPixels int
	logger    *logging.Logger

	// images limits /image.png across all clients.
	images *rate.Limiter
}

type Option func(*Server)

func WithSettings(s view.Settings) Option {
	return func(srv *Server) { srv.settings = s }
}

func WithScheme(c palette.Cycle) Option {
	return func(srv *Server) { srv.scheme = c }
}

func WithLandmarks(c landmarks.Catalog) Option {
	return func(srv *Server) { srv.catalog = c }
}

// WithFrameRate limits every session to fps frames per second with the given
// burst. fps <= 0 removes the limit.
func WithFrameRate(fps float64, burst int) Option {
	return func(srv *Server) {
		srv.fps = fps
		srv.burst = max(1, burst)
	}
}

// WithMaxPixels bounds the resolution a client may request. Zero disables
// the bound.
func WithMaxPixels(n int) Option {
	return func(srv *Server) { srv.maxPixels = n }
}

func WithLogger(l *logging.Logger) Option {
	return func(srv *Server) { srv.logger = l }
}

// New creates a server evaluating with eval. Sessions start at base.
func New(eval mandel.Evaluator, base mandel.Domain, opts ...Option) *Server {
	srv := &Server{
		eval:      eval,
		base:      base,
		settings:  view.DefaultSettings(),
		catalog:   landmarks.Builtin(),
		fps:       10,
		burst:     3,
		maxPixels: 4096 * 4096,
		logger:    logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.logger = srv.logger.WithComponent("server")
	srv.images = rate.NewLimiter(srv.limit(), srv.burst)
	return srv
}

func (srv *Server) limit() rate.Limit {
	if srv.fps <= 0 {
		return rate.Inf
	}
	return rate.Limit(srv.fps)
}

// Handler routes /ws, /image.png, /regions and /healthz.
func (srv *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.websocketHandler)
	mux.HandleFunc("GET /image.png", srv.imageHandler)
	mux.HandleFunc("GET /regions", srv.regionsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// HTTPServer wraps Handler in an *http.Server listening on addr.
func (srv *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (srv *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := srv.HTTPServer(addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	srv.logger.Info("listening", "addr", addr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// websocketHandler upgrades the request and runs a session until the client
// goes away.
func (srv *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		srv.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer c.CloseNow()

	log := srv.logger.With("remote", r.RemoteAddr)
	log.Info("session started")
	err = srv.newSession(c, log).run(r.Context())
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		log.Info("session closed")
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("session ended", "error", err)
	}
}

// imageHandler renders one image. The query may name a landmark (region) or
// give bounds (x0, x1, y0, y1); w, h, iter and scheme override the defaults.
func (srv *Server) imageHandler(w http.ResponseWriter, r *http.Request) {
	if !srv.images.Allow() {
		w.Header().Set("Retry-After", "1")
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	d, scheme, err := srv.domainFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := d.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	m, err := srv.eval.Evaluate(r.Context(), d)
	if err != nil {
		srv.logger.Error("image evaluation failed", "region", d.Region.String(), "error", err)
		http.Error(w, "evaluation failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.Encode(&buf, palette.Paint(m, scheme.Color), export.PNG); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	srv.logger.Debug("image served",
		"region", d.Region.String(),
		"width", d.Resolution.X,
		"height", d.Resolution.Y,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

func (srv *Server) domainFromQuery(r *http.Request) (mandel.Domain, palette.Scheme, error) {
	q := r.URL.Query()
	d := srv.base
	scheme := srv.scheme.Current()

	if name := q.Get("region"); name != "" {
		region, err := srv.catalog.Lookup(name)
		if err != nil {
			return d, scheme, err
		}
		d.Region = region
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"x0", &d.Region.Xmin}, {"x1", &d.Region.Xmax},
		{"y0", &d.Region.Ymin}, {"y1", &d.Region.Ymax},
	}
	for _, f := range floats {
		if v := q.Get(f.key); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return d, scheme, fmt.Errorf("%s: %w", f.key, err)
			}
			*f.dst = n
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"w", &d.Resolution.X}, {"h", &d.Resolution.Y}, {"iter", &d.MaxIter},
	}
	for _, f := range ints {
		if v := q.Get(f.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return d, scheme, fmt.Errorf("%s: %w", f.key, err)
			}
			*f.dst = n
		}
	}
	if err := checkPixels(d.Resolution.X, d.Resolution.Y, srv.maxPixels); err != nil {
		return d, scheme, err
	}

	if name := q.Get("scheme"); name != "" {
		s, ok := palette.Lookup(name)
		if !ok {
			return d, scheme, fmt.Errorf("unknown scheme %q", name)
		}
		scheme = s
	}
	return d, scheme, nil
}

func (srv *Server) regionsHandler(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Name   string        `json:"name"`
		Region mandel.Region `json:"region"`
	}
	names := srv.catalog.Names()
	out := make([]entry, 0, len(names))
	for _, n := range names {
		out = append(out, entry{Name: n, Region: srv.catalog[n]})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
