package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tooffoundation/site-backend/internal/health"
	"github.com/tooffoundation/site-backend/internal/http/handler"
	"github.com/tooffoundation/site-backend/internal/http/middleware"
	"github.com/tooffoundation/site-backend/internal/http/response"
	"github.com/tooffoundation/site-backend/internal/security"
	"github.com/tooffoundation/site-backend/internal/service"
)

const defaultBodyLimit = 1 << 20

type Dependencies struct {
	AuthHandler          *handler.AuthHandler
	PasswordResetHandler *handler.PasswordResetHandler
	UserHandler          *handler.UserHandler
	BlogHandler          *handler.BlogHandler
	EventHandler         *handler.EventHandler
	GalleryHandler       *handler.GalleryHandler
	UploadHandler        *handler.UploadHandler
	JWTManager           *security.JWTManager
	Authorizer           service.Authorizer
	CORSOrigins          []string
	UploadMaxBytes       int64
	AuthRateLimitRPM     int
	ForgotRateLimitRPM   int
	APIRateLimitRPM      int
	GlobalRateLimiter    GlobalRateLimiterFunc
	AuthRateLimiter      AuthRateLimiterFunc
	ForgotRateLimiter    ForgotRateLimiterFunc
	Readiness            *health.ProbeRunner
	Idempotency          IdempotencyMiddlewareFactory
	EnableOTelHTTP       bool
}

type GlobalRateLimiterFunc func(http.Handler) http.Handler
type AuthRateLimiterFunc func(http.Handler) http.Handler
type ForgotRateLimiterFunc func(http.Handler) http.Handler

// IdempotencyMiddlewareFactory builds the Idempotency-Key middleware for one
// route scope.
type IdempotencyMiddlewareFactory func(scope string) func(http.Handler) http.Handler

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))

	globalLimiter := dep.GlobalRateLimiter
	if globalLimiter == nil {
		globalLimiter = middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute, "api").Middleware()
	}
	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()
	}
	forgotLimiter := dep.ForgotRateLimiter
	if forgotLimiter == nil {
		forgotLimiter = middleware.NewRateLimiter(dep.ForgotRateLimitRPM, time.Minute, "forgot").Middleware()
	}
	idempotent := dep.Idempotency
	if idempotent == nil {
		idempotent = func(string) func(http.Handler) http.Handler {
			return func(next http.Handler) http.Handler { return next }
		}
	}
	uploadLimit := dep.UploadMaxBytes
	if uploadLimit <= 0 {
		uploadLimit = service.DefaultMaxImageSize
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	requireAuth := middleware.AuthMiddleware(dep.JWTManager)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(globalLimiter)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(defaultBodyLimit))

			r.Route("/auth", func(r chi.Router) {
				r.With(authLimiter).Post("/signup", dep.AuthHandler.SignUp)
				r.With(authLimiter).Post("/signin", dep.AuthHandler.SignIn)
				r.With(requireAuth, middleware.CSRFMiddleware).Post("/signout", dep.AuthHandler.SignOut)
				r.With(forgotLimiter).Post("/password/forgot", dep.PasswordResetHandler.Forgot)
				r.With(authLimiter).Post("/password/verify", dep.PasswordResetHandler.Verify)
				r.With(authLimiter).Post("/password/reset", dep.PasswordResetHandler.Reset)
			})
			r.With(requireAuth).Get("/me", dep.AuthHandler.Me)

			r.Get("/blogs", dep.BlogHandler.ListPublished)
			r.Get("/blogs/{slug}", dep.BlogHandler.GetBySlug)
			r.Get("/events", dep.EventHandler.ListPublic)
			r.Get("/events/{slug}", dep.EventHandler.GetBySlug)
			r.With(authLimiter, idempotent("event_registration")).Post("/events/{slug}/registrations", dep.EventHandler.Register)
			r.Get("/gallery", dep.GalleryHandler.List)
			r.Get("/gallery/{id}", dep.GalleryHandler.Get)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RequireAdmin(dep.Authorizer))
			r.Use(middleware.CSRFMiddleware)

			// Uploads get their own body limit; the JSON routes keep the 1MB default.
			r.With(middleware.BodyLimit(uploadLimit+defaultBodyLimit)).Post("/uploads/images", dep.UploadHandler.UploadImage)

			r.Group(func(r chi.Router) {
				r.Use(middleware.BodyLimit(defaultBodyLimit))

				r.Get("/users", dep.UserHandler.List)
				r.Get("/users/{id}", dep.UserHandler.Get)
				r.Patch("/users/{id}/role", dep.UserHandler.SetRole)
				r.Post("/users/{id}/promote", dep.UserHandler.Promote)
				r.Post("/users/{id}/demote", dep.UserHandler.Demote)

				r.Get("/blogs", dep.BlogHandler.ListAll)
				r.With(idempotent("admin_blog_create")).Post("/blogs", dep.BlogHandler.Create)
				r.Get("/blogs/{id}", dep.BlogHandler.Get)
				r.Patch("/blogs/{id}", dep.BlogHandler.Update)
				r.Delete("/blogs/{id}", dep.BlogHandler.Delete)

				r.Get("/events", dep.EventHandler.ListAll)
				r.With(idempotent("admin_event_create")).Post("/events", dep.EventHandler.Create)
				r.Get("/events/{id}", dep.EventHandler.Get)
				r.Patch("/events/{id}", dep.EventHandler.Update)
				r.Delete("/events/{id}", dep.EventHandler.Delete)
				r.Get("/events/{id}/registrations", dep.EventHandler.ListRegistrations)

				r.Get("/gallery", dep.GalleryHandler.List)
				r.With(idempotent("admin_gallery_create")).Post("/gallery", dep.GalleryHandler.Create)
				r.Get("/gallery/{id}", dep.GalleryHandler.Get)
				r.Patch("/gallery/{id}", dep.GalleryHandler.Update)
				r.Delete("/gallery/{id}", dep.GalleryHandler.Delete)
			})
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
