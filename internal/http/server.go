package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"rcrao/internal/composer"
	"rcrao/internal/log"
	"rcrao/internal/middleware/ratelimit"
	"rcrao/internal/middleware/security"
	"rcrao/internal/middleware/trace"
	"rcrao/internal/services"
	appweb "rcrao/web"
)

// ReportGenerator produces report documents.
type ReportGenerator interface {
	Generate(ctx context.Context, req services.Request) (*composer.Output, error)
}

// ReadyFunc reports whether the record store can serve queries.
type ReadyFunc func(ctx context.Context) error

// Options configures NewServer. Zero values pick defaults.
type Options struct {
	OrgName string
	// Report requests per minute per client.
	RateLimit      int
	TrustedProxies []string
	Ready          ReadyFunc
	Now            func() time.Time
}

type Server struct {
	http.Server
	templates *template.Template
	generator ReportGenerator
	ready     ReadyFunc
	orgName   string
	now       func() time.Time
	started   time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, generator ReportGenerator, opts Options) (*Server, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	detector := security.NewDetector()
	if len(opts.TrustedProxies) > 0 {
		if err := detector.SetTrustedProxies(opts.TrustedProxies); err != nil {
			return nil, err
		}
	}

	s := &Server{
		generator: generator,
		ready:     opts.Ready,
		orgName:   opts.OrgName,
		now:       opts.Now,
		started:   opts.Now(),
		detector:  detector,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			Limit:  opts.RateLimit,
			Window: time.Minute,
		}),
	}
	s.tracer = trace.NewMiddleware(detector.ExtractClientIP, nil)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	mux := http.NewServeMux()

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	limited := s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "Too many report requests. Please try again later.").Write(w)
	})

	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/reports", limited(http.HandlerFunc(s.handleReport)))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	reqLogger := log.New(log.Config{Handler: slog.Default().Handler(), Component: log.ComponentHTTP})
	withLogger := func(next http.Handler) http.Handler {
		return log.Middleware(reqLogger)(log.RequestIDMiddleware(trace.RequestID)(next))
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(withLogger(detector.Middleware(headers.Middleware(mux)))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
