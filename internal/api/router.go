package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog"

	"github.com/mrintern/server/internal/alerts"
	"github.com/mrintern/server/internal/api/handlers"
	"github.com/mrintern/server/internal/api/middleware"
	"github.com/mrintern/server/internal/api/render"
	"github.com/mrintern/server/internal/audit"
	"github.com/mrintern/server/internal/auth"
	"github.com/mrintern/server/internal/config"
	"github.com/mrintern/server/internal/domain/advice"
	"github.com/mrintern/server/internal/domain/filters"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/domain/recruiters"
	"github.com/mrintern/server/internal/domain/resumes"
	"github.com/mrintern/server/internal/domain/reviews"
	"github.com/mrintern/server/internal/domain/subscriptions"
	"github.com/mrintern/server/internal/domain/tracker"
	"github.com/mrintern/server/internal/domain/users"
	"github.com/mrintern/server/internal/email"
	"github.com/mrintern/server/internal/jobs"
	"github.com/mrintern/server/internal/metrics"
	"github.com/mrintern/server/internal/push"
	"github.com/mrintern/server/internal/resumefile"
	"github.com/mrintern/server/internal/scraper"
	"github.com/mrintern/server/internal/storage/blob"
	"github.com/mrintern/server/internal/storage/postgres"
	"github.com/mrintern/server/web"
)

// RouterWithClient carries the HTTP handler and the River client the serve
// command starts and stops. RiverClient is nil when the queue failed to
// initialize.
type RouterWithClient struct {
	Handler     http.Handler
	RiverClient *river.Client[pgx.Tx]
}

// routeHandlers groups everything registerRoutes mounts.
type routeHandlers struct {
	Auth          *handlers.AuthHandler
	Internships   *handlers.InternshipsHandler
	Filters       *handlers.FiltersHandler
	Tracker       *handlers.TrackerHandler
	Recruiters    *handlers.RecruitersHandler
	Reviews       *handlers.ReviewsHandler
	Resumes       *handlers.ResumesHandler
	Advice        *handlers.AdviceHandler
	Push          *handlers.PushHandler
	Notifications *handlers.NotificationsHandler
	Health        *handlers.HealthChecker
	Pages         *handlers.PagesHandler
	Version       http.Handler
}

func NewRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool, version, gitCommit, buildDate string) *RouterWithClient {
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		logger.Error().Err(err).Msg("repository init failed")
		return &RouterWithClient{Handler: http.NewServeMux()}
	}

	auditLogger := audit.NewLogger(logger)
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer)

	usersService := users.NewService(repo.Users(), logger)
	internshipsService := internships.NewService(repo.Internships())
	filtersService := filters.NewService(repo.Filters())
	trackerService := tracker.NewService(repo.Tracker(), internshipsService)
	recruitersService := recruiters.NewService(repo.Recruiters(), internshipsService)
	reviewsService := reviews.NewService(repo.Reviews(), internshipsService)
	adviceService := advice.NewService(repo.Advice())
	subscriptionsService := subscriptions.NewService(repo.Subscriptions())

	// Uploads stay disabled unless object storage is configured.
	var files resumes.FileStore
	storeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := blob.New(storeCtx, cfg.Storage, logger)
	cancel()
	switch {
	case err == nil:
		files = store
	case errors.Is(err, blob.ErrDisabled):
		logger.Info().Msg("object storage not configured, resume uploads disabled")
	default:
		logger.Error().Err(err).Msg("object storage init failed, resume uploads disabled")
	}
	resumesService := resumes.NewService(repo.Resumes(), files, resumefile.New())

	var mailer alerts.Mailer
	var testMailer handlers.AlertMailer
	emailService, err := email.NewService(cfg.Email, cfg.Server.BaseURL, logger)
	if err != nil {
		logger.Error().Err(err).Msg("email service init failed, alert emails disabled")
	} else {
		mailer = emailService
		testMailer = emailService
	}

	pushSender := push.NewSender(cfg.Push, subscriptionsService, logger)
	checker := alerts.NewChecker(repo.Alerts(), mailer, subscriptionsService, pushSender, cfg.Jobs.AlertLookback, logger)
	importer := scraper.NewImporter(internshipsService, repo.Imports(), logger)

	workers := jobs.NewWorkers(jobs.Deps{Alerts: checker, Importer: importer})
	periodic := jobs.NewPeriodicJobs(jobs.Schedule{
		AlertCheck: cfg.Jobs.AlertCheckInterval,
		Import:     cfg.Jobs.ImportInterval,
	})
	hooks := []rivertype.Hook{metrics.NewJobHook()}
	riverClient, err := jobs.NewClient(pool, workers, cfg.Jobs.Workers, config.NewSlogLogger(cfg.Logging), nil, hooks, periodic)
	if err != nil {
		logger.Error().Err(err).Msg("river client init failed, alert checks run inline")
	}
	var enqueuer handlers.AlertEnqueuer
	if riverClient != nil {
		enqueuer = jobs.NewEnqueuer(riverClient)
	}

	renderer, err := render.New(web.Templates())
	if err != nil {
		logger.Error().Err(err).Msg("page templates failed to parse")
		return &RouterWithClient{Handler: http.NewServeMux(), RiverClient: riverClient}
	}

	env := cfg.Environment
	secure := env == "production"
	authHandler := handlers.NewAuthHandler(usersService, jwtManager, auditLogger, cfg.Auth.CookieName, secure, env)
	pagesHandler := handlers.NewPagesHandler(handlers.PageServices{
		Internships: internshipsService,
		Reviews:     reviewsService,
		Filters:     filtersService,
		Advice:      adviceService,
		Tracker:     trackerService,
		Sessions:    authHandler,
	}, renderer, env)
	h := routeHandlers{
		Auth:          authHandler,
		Internships:   handlers.NewInternshipsHandler(internshipsService, auditLogger, env),
		Filters:       handlers.NewFiltersHandler(filtersService, env),
		Tracker:       handlers.NewTrackerHandler(trackerService, env),
		Recruiters:    handlers.NewRecruitersHandler(recruitersService, auditLogger, env),
		Reviews:       handlers.NewReviewsHandler(reviewsService, env),
		Resumes:       handlers.NewResumesHandler(resumesService, auditLogger, env),
		Advice:        handlers.NewAdviceHandler(adviceService, env),
		Push:          handlers.NewPushHandler(subscriptionsService, pushSender, env),
		Notifications: handlers.NewNotificationsHandler(checker, enqueuer, testMailer, auditLogger, env),
		Health:        handlers.NewHealthChecker(pool, riverClient != nil, version, gitCommit),
		Pages:         pagesHandler,
		Version:       VersionHandler(version, gitCommit, buildDate),
	}

	mux := http.NewServeMux()
	registerRoutes(mux, cfg, h)
	return &RouterWithClient{
		Handler:     wrapMiddleware(mux, cfg, logger, jwtManager),
		RiverClient: riverClient,
	}
}

// wrapMiddleware applies the global chain, outermost first: correlation id,
// tracing, metrics, request log, security headers, session, rate limit.
func wrapMiddleware(next http.Handler, cfg config.Config, logger zerolog.Logger, jwtManager *auth.JWTManager) http.Handler {
	h := middleware.RateLimit(cfg.RateLimit)(next)
	h = middleware.Session(jwtManager, cfg.Auth.CookieName)(h)
	h = middleware.SecurityHeaders(cfg.Environment == "production")(h)
	h = middleware.RequestLogging(h)
	h = metrics.HTTPMiddleware(h)
	h = middleware.Tracing(h)
	return middleware.CorrelationID(logger)(h)
}

// csrfKey prefers CSRF_KEY and otherwise derives a key from the JWT secret.
func csrfKey(cfg config.Config) []byte {
	if cfg.Server.CSRFKey != "" {
		return []byte(cfg.Server.CSRFKey)
	}
	key, err := auth.DeriveCSRFKey([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return []byte(cfg.Auth.JWTSecret)
	}
	return key
}

func registerRoutes(mux *http.ServeMux, cfg config.Config, h routeHandlers) {
	env := cfg.Environment
	user := middleware.RequireUser(env)
	admin := middleware.RequireAdmin(env)
	body := middleware.RequestSize(middleware.DefaultMaxBodySize)
	login := middleware.StrictTier(middleware.TierLogin)
	csrf := middleware.CSRFProtection(csrfKey(cfg), env == "production")

	fn := func(f http.HandlerFunc) http.Handler { return body(f) }
	authed := func(f http.HandlerFunc) http.Handler { return user(body(f)) }
	adminOnly := func(f http.HandlerFunc) http.Handler { return admin(body(f)) }

	// Operations.
	mux.HandleFunc("/healthz", h.Health.Healthz)
	mux.HandleFunc("/readyz", h.Health.Readyz)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("/version", h.Version)
	mux.Handle("/api/openapi.json", OpenAPIHandler())
	mux.HandleFunc("/api/test", h.Health.DBTest)

	// Static assets.
	mux.Handle("/static/", web.StaticHandler())
	mux.Handle("/robots.txt", web.RobotsTxtHandler())
	mux.Handle("/sw.js", web.ServiceWorkerHandler())

	// Server-rendered pages.
	mux.Handle("GET /internships", csrf(http.HandlerFunc(h.Pages.Internships)))
	mux.Handle("GET /internships/{id}", csrf(http.HandlerFunc(h.Pages.Internship)))
	mux.Handle("GET /advice", csrf(http.HandlerFunc(h.Pages.Advice)))
	mux.Handle("GET /advice/{id}", csrf(http.HandlerFunc(h.Pages.AdvicePost)))
	mux.Handle("GET /dashboard", csrf(http.HandlerFunc(h.Pages.Dashboard)))
	mux.Handle("GET /login", csrf(http.HandlerFunc(h.Pages.LoginPage)))
	mux.Handle("GET /register", csrf(http.HandlerFunc(h.Pages.RegisterPage)))
	mux.Handle("POST /login", login(csrf(fn(h.Pages.Login))))
	mux.Handle("POST /register", login(csrf(fn(h.Pages.Register))))
	mux.Handle("POST /logout", csrf(fn(h.Pages.Logout)))
	mux.Handle("POST /dashboard/applications", csrf(fn(h.Pages.TrackApplication)))
	mux.Handle("POST /internships/filters", csrf(fn(h.Pages.SaveFilter)))
	mux.Handle("POST /internships/{id}/reviews", csrf(fn(h.Pages.CreateReview)))
	mux.Handle("POST /advice", csrf(fn(h.Pages.CreatePost)))
	mux.Handle("POST /advice/{id}/comments", csrf(fn(h.Pages.CreateComment)))
	// Home also renders the 404 page for unmatched paths.
	mux.Handle("/", csrf(http.HandlerFunc(h.Pages.Home)))

	// Auth.
	mux.Handle("POST /api/auth/register", login(fn(h.Auth.Register)))
	mux.Handle("POST /api/auth/login", login(fn(h.Auth.Login)))
	mux.Handle("POST /api/auth/logout", fn(h.Auth.Logout))
	mux.Handle("GET /api/auth/session", fn(h.Auth.Session))

	// Listings.
	mux.Handle("/api/internships", methodMux(map[string]http.Handler{
		http.MethodGet:  fn(h.Internships.List),
		http.MethodPost: adminOnly(h.Internships.Create),
	}))
	mux.Handle("GET /api/internships/{id}", fn(h.Internships.Get))
	mux.Handle("POST /api/seed", adminOnly(h.Internships.Seed))

	// Saved filters and alerts.
	mux.Handle("/api/filters", methodMux(map[string]http.Handler{
		http.MethodGet:    fn(h.Filters.List),
		http.MethodPost:   authed(h.Filters.Create),
		http.MethodDelete: authed(h.Filters.Delete),
	}))
	mux.Handle("/api/alerts", methodMux(map[string]http.Handler{
		http.MethodGet:    authed(h.Filters.ListAlerts),
		http.MethodPost:   authed(h.Filters.EnableAlert),
		http.MethodDelete: authed(h.Filters.DisableAlert),
	}))
	mux.Handle("POST /api/check-alerts", adminOnly(h.Notifications.CheckAlerts))
	mux.Handle("POST /api/test-email", authed(h.Notifications.TestEmail))

	// Push.
	mux.Handle("/api/push/subscribe", methodMux(map[string]http.Handler{
		http.MethodPost:   authed(h.Push.Subscribe),
		http.MethodDelete: authed(h.Push.Unsubscribe),
	}))
	mux.Handle("POST /api/push/test", authed(h.Push.Test))
	mux.Handle("GET /api/push/vapid-public-key", fn(h.Push.PublicKey))

	// Application tracker.
	mux.Handle("/api/saved", methodMux(map[string]http.Handler{
		http.MethodGet:    authed(h.Tracker.ListSaved),
		http.MethodPost:   authed(h.Tracker.Save),
		http.MethodDelete: authed(h.Tracker.Unsave),
	}))
	mux.Handle("/api/applications", methodMux(map[string]http.Handler{
		http.MethodGet:    authed(h.Tracker.ListApplications),
		http.MethodPost:   authed(h.Tracker.Track),
		http.MethodDelete: authed(h.Tracker.Untrack),
	}))
	mux.Handle("GET /api/analytics", authed(h.Tracker.Analytics))

	// Recruiters.
	mux.Handle("/api/recruiters", methodMux(map[string]http.Handler{
		http.MethodGet:  authed(h.Recruiters.Profile),
		http.MethodPost: authed(h.Recruiters.CreateProfile),
	}))
	mux.Handle("/api/recruiter-internships", methodMux(map[string]http.Handler{
		http.MethodGet:    authed(h.Recruiters.ListPostings),
		http.MethodPost:   authed(h.Recruiters.CreatePosting),
		http.MethodPut:    authed(h.Recruiters.UpdatePosting),
		http.MethodDelete: authed(h.Recruiters.DeletePosting),
	}))

	// Reviews.
	mux.Handle("/api/reviews", methodMux(map[string]http.Handler{
		http.MethodGet:    fn(h.Reviews.List),
		http.MethodPost:   authed(h.Reviews.Create),
		http.MethodPatch:  authed(h.Reviews.Update),
		http.MethodDelete: authed(h.Reviews.Delete),
	}))

	// Resumes.
	mux.Handle("/api/resumes", methodMux(map[string]http.Handler{
		http.MethodGet:    fn(h.Resumes.List),
		http.MethodPost:   authed(h.Resumes.Submit),
		http.MethodDelete: authed(h.Resumes.Delete),
	}))
	mux.Handle("POST /api/resumes/upload", user(middleware.RequestSize(middleware.UploadMaxBodySize)(http.HandlerFunc(h.Resumes.Upload))))
	mux.Handle("/api/resume-comments", methodMux(map[string]http.Handler{
		http.MethodGet:    fn(h.Resumes.Comments),
		http.MethodPost:   authed(h.Resumes.AddComment),
		http.MethodDelete: authed(h.Resumes.DeleteComment),
	}))

	// Advice board.
	mux.Handle("/api/advice-posts", methodMux(map[string]http.Handler{
		http.MethodGet:    fn(h.Advice.ListPosts),
		http.MethodPost:   authed(h.Advice.CreatePost),
		http.MethodDelete: authed(h.Advice.DeletePost),
	}))
	mux.Handle("/api/advice-comments", methodMux(map[string]http.Handler{
		http.MethodGet:    fn(h.Advice.Comments),
		http.MethodPost:   authed(h.Advice.AddComment),
		http.MethodDelete: authed(h.Advice.DeleteComment),
	}))
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
