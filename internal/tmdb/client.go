package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"movie-discovery-match-service/internal/config"
	"movie-discovery-match-service/internal/metrics"
	"movie-discovery-match-service/internal/models"
)

const breakerName = "tmdb-api"

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("tmdb temporarily unavailable")

// StatusError is a non-200 response from TMDB.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("TMDB API returned status %d: %s", e.StatusCode, e.Body)
}

// Client is the TMDB API client.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a new TMDB API client.
func NewClient(cfg config.TMDBConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// 4xx answers mean TMDB is up.
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
		breaker: breaker,
	}
}

// ---- TMDB Response Types (internal, not exposed to consumers) ----

// discoverResponse covers both discover/movie and discover/tv, and the
// search endpoints.
type discoverResponse struct {
	Page         int          `json:"page"`
	Results      []tmdbResult `json:"results"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
}

// tmdbResult is a movie or TV show. Movies carry title and release_date,
// shows carry name and first_air_date.
type tmdbResult struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	Popularity       float64 `json:"popularity"`
	PosterPath       string  `json:"poster_path"`
	GenreIDs         []int   `json:"genre_ids"`
	OriginalLanguage string  `json:"original_language"`
}

// detailsResponse is a single movie or TV show from /movie/{id} or /tv/{id}.
type detailsResponse struct {
	tmdbResult
	Genres         []models.Genre `json:"genres"`
	Runtime        int            `json:"runtime"`
	EpisodeRunTime []int          `json:"episode_run_time"`
	Tagline        string         `json:"tagline"`
}

type genreListResponse struct {
	Genres []models.Genre `json:"genres"`
}

func (r tmdbResult) toTitle(t models.TitleType) models.Title {
	title := models.Title{
		ID:               r.ID,
		Type:             t,
		Name:             r.Title,
		Overview:         r.Overview,
		ReleaseDate:      r.ReleaseDate,
		Popularity:       r.Popularity,
		GenreIDs:         r.GenreIDs,
		OriginalLanguage: r.OriginalLanguage,
	}
	if t == models.TitleTypeTV {
		title.Name = r.Name
		title.ReleaseDate = r.FirstAirDate
	}
	if title.GenreIDs == nil {
		title.GenreIDs = []int{}
	}
	if r.PosterPath != "" {
		title.PosterURL = models.TMDBImageBaseW500 + r.PosterPath
	}
	return title
}

func (r detailsResponse) toTitle(t models.TitleType) *models.Title {
	title := r.tmdbResult.toTitle(t)
	title.Genres = r.Genres
	title.Tagline = r.Tagline
	title.Runtime = r.Runtime
	if t == models.TitleTypeTV && len(r.EpisodeRunTime) > 0 {
		title.Runtime = r.EpisodeRunTime[0]
	}
	for _, g := range r.Genres {
		title.GenreIDs = append(title.GenreIDs, g.ID)
	}
	return &title
}

func (r discoverResponse) toPage(t models.TitleType) *models.CatalogPage {
	page := &models.CatalogPage{
		Page:         r.Page,
		TotalPages:   r.TotalPages,
		TotalResults: r.TotalResults,
		Results:      make([]models.Title, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		page.Results = append(page.Results, res.toTitle(t))
	}
	return page
}

// ---- Client Methods ----

// Discover fetches a page of titles ordered by popularity.
func (c *Client) Discover(ctx context.Context, q models.CatalogQuery) (*models.CatalogPage, error) {
	q.Normalize()
	params := url.Values{}
	params.Set("sort_by", "popularity.desc")
	params.Set("page", strconv.Itoa(q.Page))
	if q.GenreID > 0 {
		params.Set("with_genres", strconv.Itoa(q.GenreID))
	}

	var result discoverResponse
	if err := c.get(ctx, "discover", "/discover/"+string(q.Type), params, &result); err != nil {
		return nil, err
	}
	return result.toPage(q.Type), nil
}

// Search looks titles up by name.
func (c *Client) Search(ctx context.Context, t models.TitleType, query string, page int) (*models.CatalogPage, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))

	var result discoverResponse
	if err := c.get(ctx, "search", "/search/"+string(t), params, &result); err != nil {
		return nil, err
	}
	return result.toPage(t), nil
}

// Details fetches a single title. Unknown ids return an error wrapping
// models.ErrTitleNotFound.
func (c *Client) Details(ctx context.Context, t models.TitleType, id int) (*models.Title, error) {
	var result detailsResponse
	err := c.get(ctx, "details", "/"+string(t)+"/"+strconv.Itoa(id), url.Values{}, &result)
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s %d", models.ErrTitleNotFound, t, id)
	}
	if err != nil {
		return nil, err
	}
	return result.toTitle(t), nil
}

// Genres fetches the genre list for a title type.
func (c *Client) Genres(ctx context.Context, t models.TitleType) ([]models.Genre, error) {
	var result genreListResponse
	if err := c.get(ctx, "genres", "/genre/"+string(t)+"/list", url.Values{}, &result); err != nil {
		return nil, err
	}
	if result.Genres == nil {
		return []models.Genre{}, nil
	}
	return result.Genres, nil
}

// get performs a rate limited, circuit protected GET and decodes the body
// into dst.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, dst any) (err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogRequest(endpoint, start, err) }()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	params.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()
	slog.Debug("fetching TMDB", "endpoint", endpoint, "path", path)

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doGet(ctx, reqURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) doGet(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
