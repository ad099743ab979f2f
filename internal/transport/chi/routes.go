package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// RouteOptions configures the router built by Mount.
type RouteOptions struct {
	// RateLimitRequests per RateLimitWindow per client IP on /api/movies. Zero disables limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// CORSAllowedOrigins is passed to go-chi/cors. Empty disables CORS headers.
	CORSAllowedOrigins []string
}

// Mount registers every API route on r.
func (s *Server) Mount(r chi.Router, opts RouteOptions) {
	if len(opts.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         86400,
		}))
	}

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Route("/movies", func(r chi.Router) {
			r.Use(s.rateLimit(opts))
			r.Get("/search", s.SearchMovies)
			r.Get("/genres", s.ListGenres)
			r.Get("/discover/{genreID}", s.DiscoverByGenre)
			r.Get("/trending", s.Trending)
			r.Get("/suggestions", s.Suggestions)
			r.Get("/{movieID}", s.GetMovie)
			r.Get("/{movieID}/recommendations", s.MovieRecommendations)
		})

		r.Post("/register", s.Register)
		r.Post("/login", s.Login)

		r.Route("/me", func(r chi.Router) {
			r.Use(BearerAuthMiddleware(s.accounts))
			r.Get("/recent-searches", s.ListRecentSearches)
			r.Post("/recent-searches", s.AddRecentSearch)
			r.Delete("/recent-searches", s.ClearRecentSearches)
			r.Get("/recommendations", s.MyRecommendations)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
}

func (s *Server) rateLimit(opts RouteOptions) func(http.Handler) http.Handler {
	if opts.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	window := opts.RateLimitWindow
	if window <= 0 {
		window = time.Hour
	}
	return httprate.Limit(
		opts.RateLimitRequests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Warn("rate limit exceeded", zap.String("ip", r.RemoteAddr), zap.String("path", r.URL.Path))
			writeError(w, http.StatusTooManyRequests, CodeRateLimited,
				"Too many requests from this IP, please try again later.")
		}),
	)
}
