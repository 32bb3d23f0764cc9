package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"playlater/internal/apperr"
)

// tokenSafetyMargin is subtracted from expires_in so a token is refreshed
// before it can expire mid-request.
const tokenSafetyMargin = 60 * time.Second

// Client queries the IGDB catalog through the Twitch OAuth client-credentials
// flow. It owns a single cached access token; the mutex serializes the
// read-then-maybe-refresh sequence so concurrent callers never issue duplicate
// token exchanges.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	limiter      *rate.Limiter
	now          func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(clientID, clientSecret string, rps int) *Client {
	if rps < 1 {
		rps = 1
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:      "https://api.igdb.com/v4",
		tokenURL:     "https://id.twitch.tv/oauth2/token",
		clientID:     clientID,
		clientSecret: clientSecret,
		limiter:      rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1),
		now:          time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// accessToken returns the cached token when it is still inside its safety
// margin, otherwise exchanges credentials for a fresh one.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &apperr.ExternalError{Err: fmt.Errorf("token exchange: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &apperr.ExternalError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", &apperr.ExternalError{Err: fmt.Errorf("decode token response: %w", err)}
	}

	c.token = tok.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenSafetyMargin)
	return c.token, nil
}

// resetToken clears the cached token, forcing the next call to re-exchange.
// Test seam only; production flows rely on natural expiry.
func (c *Client) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

// Query POSTs an Apicalypse body to the given resource and returns the raw
// response. 429 maps to apperr.ErrRateLimited; any other non-2xx or transport
// failure maps to *apperr.ExternalError.
func (c *Client) Query(ctx context.Context, resource, body string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+resource, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Client-ID", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.ExternalError{Err: fmt.Errorf("query %s: %w", resource, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("igdb %s: %w", resource, apperr.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &apperr.ExternalError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return io.ReadAll(resp.Body)
}

// Game matches the fields requested from the IGDB games resource.
type Game struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Slug             string `json:"slug"`
	Summary          string `json:"summary"`
	FirstReleaseDate int64  `json:"first_release_date"` // unix seconds, 0 when unknown
	Cover            struct {
		ImageID string `json:"image_id"`
	} `json:"cover"`
}

const gameFields = "fields name, slug, summary, first_release_date, cover.image_id;"

// GetGameByID fetches a single game record. A well-formed empty result maps to
// apperr.ErrNotFound, which callers must not retry.
func (c *Client) GetGameByID(ctx context.Context, igdbID int64) (*Game, error) {
	body := fmt.Sprintf("%s where id = %d; limit 1;", gameFields, igdbID)
	raw, err := c.Query(ctx, "games", body)
	if err != nil {
		return nil, err
	}

	var games []Game
	if err := json.Unmarshal(raw, &games); err != nil {
		return nil, &apperr.ExternalError{Err: fmt.Errorf("decode games response: %w", err)}
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("igdb game %d: %w", igdbID, apperr.ErrNotFound)
	}
	return &games[0], nil
}

// SearchGames runs a full-text search against the games resource.
func (c *Client) SearchGames(ctx context.Context, term string, limit int) ([]Game, error) {
	body := fmt.Sprintf("%s search %q; limit %d;", gameFields, term, limit)
	raw, err := c.Query(ctx, "games", body)
	if err != nil {
		return nil, err
	}

	var games []Game
	if err := json.Unmarshal(raw, &games); err != nil {
		return nil, &apperr.ExternalError{Err: fmt.Errorf("decode games response: %w", err)}
	}
	return games, nil
}
