package api

import (
	"context"
	"net/http"
	"time"

	"freepaste/cfg"
	"freepaste/svc/db"
	"freepaste/svc/svc"
	"freepaste/svc/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"
)

type Server struct {
	router     *chi.Mux
	paste      *svc.Paste
	cfg        *cfg.Cfg
	store      db.Store
	httpServer *http.Server
}

func NewServer(c *cfg.Cfg, p *svc.Paste, store db.Store) *Server {
	r := chi.NewRouter()
	mw := NewMw(c)
	s := &Server{
		router: r,
		paste:  p,
		cfg:    c,
		store:  store,
		httpServer: &http.Server{
			Addr:           ":" + c.Port,
			Handler:        r,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 256 * 1024,
		},
	}

	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Get("/health", s.Health)
		r.Get("/ready", s.Ready)
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Handle("/metrics", mw.BasicAuthMetrics(promhttp.Handler()))
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Use(mw.RequestID)
		r.Use(hlog.NewHandler(util.GetLogger()))
		r.Use(hlog.AccessHandler(func(req *http.Request, status, size int, dur time.Duration) {
			hlog.FromRequest(req).Info().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Int("status", status).
				Int("size", size).
				Dur("duration", dur).
				Str("request_id", util.GetRequestID(req.Context())).
				Msg("http request")
		}))
		if len(c.TrustedProxies) > 0 {
			r.Use(middleware.RealIP)
		}
		r.Use(mw.ContextTimeout)
		r.Use(mw.SecurityHeaders)
		r.Use(mw.Observe)

		hdl := &Hdl{paste: p, cfg: c}
		r.Group(func(r chi.Router) {
			r.Use(mw.JSONContentType)
			r.Post("/api/new", hdl.CreatePaste)
			r.Get("/api/get/{id}", hdl.GetPaste)
			r.Post("/api/is_owner/{id}", hdl.IsOwner)
			r.Post("/api/edit/{id}", hdl.EditPaste)
			r.Post("/api/profile", hdl.Profile)
		})
		r.Get("/raw/{id}", hdl.GetRaw)
		r.Get("/", hdl.Index)
		r.Get("/{id}", hdl.ViewPage)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Start() error {
	util.Info().Str("port", s.cfg.Port).Msg("starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		util.Error().Err(err).Str("port", s.cfg.Port).Msg("server failed to start")
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
