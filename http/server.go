package http

import (
	"context"
	"encoding/gob"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"warbler/domain"
)

func init() {
	// Alerts are stored in the session as flashes, which are gob encoded.
	gob.Register(domain.Alert{})
}

// Config holds the settings of the http layer that come from the app config.
type Config struct {
	// SessionKey authenticates the session cookie. It should be 32 or 64 bytes long.
	SessionKey []byte
	// CSRFKey is the 32 byte long authentication key of the csrf middleware.
	CSRFKey     []byte
	CSRFEnabled bool
	// Secure marks cookies as https-only.
	Secure    bool
	StaticDir string
	ImagesDir string
}

// Server provides most of the http functionality of this app, namely routing,
// request handling, and middleware. It also performs authentication and
// authorization before handing things over to one of the crud services.
type Server struct {
	router  *mux.Router
	handler http.Handler
	store   *sessions.CookieStore
	pages   map[string]*template.Template
	metrics *metrics
	us      domain.UserService
	ms      domain.MessageService
	fs      domain.FollowService
	ls      domain.LikeService
	is      domain.ImageService
}

// NewServer returns a new instance of the server, registers all necessary
// routes and gives their handlers access to the app services passed in.
func NewServer(
	us domain.UserService,
	ms domain.MessageService,
	fs domain.FollowService,
	ls domain.LikeService,
	is domain.ImageService,
	cfg Config,
) *Server {

	store := sessions.NewCookieStore(cfg.SessionKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	// Construct a new Server with a gorilla router and the services passed in.
	s := &Server{
		router:  mux.NewRouter(),
		store:   store,
		pages:   parsePages(),
		metrics: newMetrics(prometheus.NewRegistry()),
		us:      us,
		ms:      ms,
		fs:      fs,
		ls:      ls,
		is:      is,
	}

	// Register routes of the auth system.
	s.registerAuthRoutes(s.router)

	// Register routes of the crud system.
	s.registerUserRoutes(s.router)
	s.registerMessageRoutes(s.router)
	s.registerFollowRoutes(s.router)
	s.registerLikeRoutes(s.router)

	// Register routes serving files and metrics.
	s.registerFileRoutes(s.router, cfg.StaticDir, cfg.ImagesDir)
	s.registerMetricsRoutes(s.router)
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)

	// Set up middleware that needs to run on every request.
	s.router.Use(s.logRequest, s.instrument, s.checkUser)
	s.handler = s.router
	if cfg.CSRFEnabled {
		csrfMw := csrf.Protect(cfg.CSRFKey, csrf.Secure(cfg.Secure), csrf.Path("/"))
		s.handler = csrfMw(s.router)
	}
	return s
}

// ServeHTTP lets the Server be used as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run listens and serves on addr until ctx is cancelled. It then shuts the
// server down, giving in-flight requests a few seconds to finish.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logrus.Info("server stopped")
	return nil
}
