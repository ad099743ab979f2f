package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moviemaster/internal/domain/movie"
	authuc "github.com/kailas-cloud/moviemaster/internal/usecase/auth"
	cataloguc "github.com/kailas-cloud/moviemaster/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/moviemaster/internal/usecase/health"
	"github.com/kailas-cloud/moviemaster/internal/validation"
	"github.com/kailas-cloud/moviemaster/internal/version"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Server holds the HTTP handlers of the API.
type Server struct {
	catalog       Catalog
	recent        RecentSearches
	feed          Feed
	accounts      Accounts
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	catalog Catalog,
	recent RecentSearches,
	feed Feed,
	accounts Accounts,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	return &Server{
		catalog:       catalog,
		recent:        recent,
		feed:          feed,
		accounts:      accounts,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse is the public part of an account.
type UserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// LoginResponse carries an issued token.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// RecentSearchesResponse is the current recent search list, newest first.
type RecentSearchesResponse struct {
	RecentSearches []string `json:"recent_searches"`
}

// AddRecentSearchRequest is the body of POST /api/me/recent-searches.
type AddRecentSearchRequest struct {
	Term string `json:"term" validate:"required"`
}

// FeedResponse is the recommendation feed.
type FeedResponse struct {
	Results []movie.Movie `json:"results"`
	Partial bool          `json:"partial"`
	Version uint64        `json:"version"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  healthuc.Status                 `json:"status"`
	Checks  map[string]healthuc.CheckResult `json:"checks"`
	Version string                          `json:"version"`
}

// SearchMovies handles GET /api/movies/search.
func (s *Server) SearchMovies(w http.ResponseWriter, r *http.Request) {
	var p cataloguc.SearchParams
	if !s.bindQuery(w, r, "query", &p.Query) ||
		!s.bindQuery(w, r, "with_genres", &p.WithGenres) ||
		!s.bindQuery(w, r, "page", &p.Page) {
		return
	}

	page, err := s.catalog.Search(r.Context(), p)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ListGenres handles GET /api/movies/genres.
func (s *Server) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.catalog.Genres(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

// DiscoverByGenre handles GET /api/movies/discover/{genreID}.
func (s *Server) DiscoverByGenre(w http.ResponseWriter, r *http.Request) {
	var genreID, pageNum int
	if !s.bindPath(w, r, "genreID", &genreID) || !s.bindQuery(w, r, "page", &pageNum) {
		return
	}

	page, err := s.catalog.Discover(r.Context(), genreID, pageNum)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Trending handles GET /api/movies/trending.
func (s *Server) Trending(w http.ResponseWriter, r *http.Request) {
	page, err := s.catalog.Trending(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Suggestions handles GET /api/movies/suggestions.
func (s *Server) Suggestions(w http.ResponseWriter, r *http.Request) {
	var query string
	if !s.bindQuery(w, r, "query", &query) {
		return
	}

	titles, err := s.catalog.Suggestions(r.Context(), query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, titles)
}

// GetMovie handles GET /api/movies/{movieID}.
func (s *Server) GetMovie(w http.ResponseWriter, r *http.Request) {
	var id int64
	if !s.bindPath(w, r, "movieID", &id) {
		return
	}

	details, err := s.catalog.Details(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// MovieRecommendations handles GET /api/movies/{movieID}/recommendations.
func (s *Server) MovieRecommendations(w http.ResponseWriter, r *http.Request) {
	var (
		id      int64
		pageNum int
	)
	if !s.bindPath(w, r, "movieID", &id) || !s.bindQuery(w, r, "page", &pageNum) {
		return
	}

	page, err := s.catalog.Recommendations(r.Context(), id, pageNum)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Register handles POST /api/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req authuc.RegisterInput
	if !s.decodeBody(w, r, &req) {
		return
	}

	if _, err := s.accounts.Register(r.Context(), req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "User registered successfully"})
}

// Login handles POST /api/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req authuc.LoginInput
	if !s.decodeBody(w, r, &req) {
		return
	}

	tok, err := s.accounts.Login(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		Token: tok.Token,
		User:  UserResponse{Email: tok.User.Email, Name: tok.User.Name},
	})
}

// ListRecentSearches handles GET /api/me/recent-searches.
func (s *Server) ListRecentSearches(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		return
	}

	terms, err := s.recent.List(r.Context(), id.UserID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RecentSearchesResponse{RecentSearches: terms})
}

// AddRecentSearch handles POST /api/me/recent-searches.
func (s *Server) AddRecentSearch(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		return
	}

	var req AddRecentSearchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if err := validation.Struct(req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	snap, err := s.recent.Add(r.Context(), id.UserID, req.Term)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RecentSearchesResponse{RecentSearches: snap.List.Terms()})
}

// ClearRecentSearches handles DELETE /api/me/recent-searches.
func (s *Server) ClearRecentSearches(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		return
	}

	snap, err := s.recent.Clear(r.Context(), id.UserID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RecentSearchesResponse{RecentSearches: snap.List.Terms()})
}

// MyRecommendations handles GET /api/me/recommendations.
func (s *Server) MyRecommendations(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		return
	}

	view, err := s.feed.Get(r.Context(), id.UserID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FeedResponse{
		Results: view.Movies,
		Partial: view.Partial,
		Version: view.Version,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  report.Status,
		Checks:  report.Checks,
		Version: version.String(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) bindPath(w http.ResponseWriter, r *http.Request, name string, dst any) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dst,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter "+name)
		return false
	}
	return true
}

// bindQuery binds an optional query parameter; dst is left untouched when it is absent.
func (s *Server) bindQuery(w http.ResponseWriter, r *http.Request, name string, dst any) bool {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter "+name)
		return false
	}
	return true
}
