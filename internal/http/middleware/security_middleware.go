package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tooffoundation/site-backend/internal/http/response"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/security"
)

const csrfHeaderName = "X-CSRF-Token"

func RequestID(next http.Handler) http.Handler { return chimiddleware.RequestID(next) }

var apiSecurityHeaders = map[string]string{
	"X-Content-Type-Options":       "nosniff",
	"X-Frame-Options":              "DENY",
	"Referrer-Policy":              "strict-origin-when-cross-origin",
	"Content-Security-Policy":      "default-src 'none'; frame-ancestors 'none'",
	"Cross-Origin-Opener-Policy":   "same-origin",
	"Cross-Origin-Resource-Policy": "same-site",
	"Permissions-Policy":           "camera=(), microphone=(), geolocation=()",
}

// SecurityHeaders sets the static response headers for a JSON API. HSTS is
// only sent on TLS connections.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range apiSecurityHeaders {
			h.Set(k, v)
		}
		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

type corsPolicy struct {
	origins  map[string]struct{}
	anyHost  bool
	methods  string
	headers  string
	exposed  string
	maxAgeSC string
}

// CORS allows credentialed requests from the listed site origins. A "*"
// entry reflects any origin back, which is only meant for local development.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	p := corsPolicy{
		origins:  make(map[string]struct{}, len(allowedOrigins)),
		methods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		headers:  "Content-Type, Authorization, " + csrfHeaderName,
		exposed:  "Retry-After, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, X-Request-Id",
		maxAgeSC: strconv.Itoa(600),
	}
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			p.anyHost = true
			continue
		}
		if o != "" {
			p.origins[o] = struct{}{}
		}
	}
	return p.middleware
}

func (p corsPolicy) allows(origin string) bool {
	if p.anyHost {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

func (p corsPolicy) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		h := w.Header()
		h.Add("Vary", "Origin")
		allowed := p.allows(origin)
		if allowed {
			observability.RecordMiddlewareValidationEvent(r.Context(), "cors", "allow_origin")
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Expose-Headers", p.exposed)
		} else {
			observability.RecordMiddlewareValidationEvent(r.Context(), "cors", "rejected_origin")
		}

		if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
			next.ServeHTTP(w, r)
			return
		}
		observability.RecordMiddlewareValidationEvent(r.Context(), "cors", "preflight")
		if allowed {
			h.Set("Access-Control-Allow-Methods", p.methods)
			h.Set("Access-Control-Allow-Headers", p.headers)
			h.Set("Access-Control-Max-Age", p.maxAgeSC)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// BodyLimit caps request bodies at maxBytes. Handlers see an
// *http.MaxBytesError from Read once the cap is hit.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				observability.RecordMiddlewareValidationEvent(r.Context(), "body_limit", "rejected_content_length")
				response.Error(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
				return
			}
			r.Body = &limitedBody{ReadCloser: http.MaxBytesReader(w, r.Body, maxBytes), ctx: r.Context()}
			next.ServeHTTP(w, r)
		})
	}
}

type limitedBody struct {
	io.ReadCloser
	ctx      context.Context
	reported bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && !b.reported {
		b.reported = true
		outcome := "read_error"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			outcome = "rejected_too_large"
		}
		observability.RecordMiddlewareValidationEvent(b.ctx, "body_limit", outcome)
	}
	return n, err
}

// CSRFMiddleware applies the double-submit check to unsafe methods on
// cookie sessions. Bearer requests carry no ambient credentials and skip it.
func CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		group := csrfPathGroup(r.URL.Path)
		if tokenSourceFromContext(r.Context()) == TokenSourceHeader {
			observability.RecordCSRFValidation(r.Context(), "skipped_bearer", group)
			next.ServeHTTP(w, r)
			return
		}
		if outcome := checkDoubleSubmit(r); outcome != "valid" {
			observability.RecordCSRFValidation(r.Context(), outcome, group)
			response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "invalid csrf token", nil)
			return
		}
		observability.RecordCSRFValidation(r.Context(), "valid", group)
		next.ServeHTTP(w, r)
	})
}

func checkDoubleSubmit(r *http.Request) string {
	cookie, err := r.Cookie(security.CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return "missing_cookie"
	}
	header := r.Header.Get(csrfHeaderName)
	if header == "" {
		return "missing_header"
	}
	if subtle.ConstantTimeCompare([]byte(header), []byte(cookie.Value)) != 1 {
		return "mismatch"
	}
	return "valid"
}

// csrfPathGroup keeps metric labels bounded: "/api/v1/admin/blogs/3" is
// reported as "api/admin".
func csrfPathGroup(rawPath string) string {
	segments := strings.Split(strings.Trim(path.Clean("/"+rawPath), "/"), "/")
	switch {
	case segments[0] == "":
		return "root"
	case segments[0] == "api" && len(segments) >= 3:
		return "api/" + segments[2]
	default:
		return segments[0]
	}
}
