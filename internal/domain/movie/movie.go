package movie

// Movie is a movie record as returned by list endpoints.
// Only ID carries meaning inside the service; the rest is passed through to clients.
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path,omitempty"`
	BackdropPath     string  `json:"backdrop_path,omitempty"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	GenreIDs         []int   `json:"genre_ids,omitempty"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Adult            bool    `json:"adult"`
	Video            bool    `json:"video"`
}

// Page is one page of a paginated movie listing.
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// First returns the first movie of the page.
func (p Page) First() (Movie, bool) {
	if len(p.Results) == 0 {
		return Movie{}, false
	}
	return p.Results[0], true
}

// Genre is a named movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreList is the genre catalogue.
type GenreList struct {
	Genres []Genre `json:"genres"`
}

// CastMember is one billed cast entry.
type CastMember struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path,omitempty"`
}

// Credits holds the cast of a movie.
type Credits struct {
	Cast []CastMember `json:"cast"`
}

// Details is the full movie record with its top-billed cast.
type Details struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	Overview         string  `json:"overview"`
	Tagline          string  `json:"tagline,omitempty"`
	Status           string  `json:"status,omitempty"`
	Homepage         string  `json:"homepage,omitempty"`
	IMDbID           string  `json:"imdb_id,omitempty"`
	PosterPath       string  `json:"poster_path,omitempty"`
	BackdropPath     string  `json:"backdrop_path,omitempty"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	Runtime          int     `json:"runtime,omitempty"`
	Budget           int64   `json:"budget,omitempty"`
	Revenue          int64   `json:"revenue,omitempty"`
	Genres           []Genre `json:"genres,omitempty"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Adult            bool    `json:"adult"`

	Cast []CastMember `json:"cast"`
}

// MaxCast is how many cast members Details carries.
const MaxCast = 5

// TopCast returns at most n leading entries of cast.
func TopCast(cast []CastMember, n int) []CastMember {
	if len(cast) > n {
		cast = cast[:n]
	}
	out := make([]CastMember, len(cast))
	copy(out, cast)
	return out
}

// MaxSuggestions is how many titles a suggestion lookup returns.
const MaxSuggestions = 10

// Titles returns the titles of at most n leading movies.
func Titles(movies []Movie, n int) []string {
	if len(movies) > n {
		movies = movies[:n]
	}
	out := make([]string, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.Title)
	}
	return out
}
