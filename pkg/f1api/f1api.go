// Package f1api provides a client for the F1 prediction contest backend.
package f1api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/f1bet/internal/errors"
	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/models"
)

const (
	// TokenHeader carries the session token on every call made with a token
	TokenHeader = "x-auth-token"
	// RequestIDHeader correlates client and backend log lines
	RequestIDHeader = "X-Request-ID"
	// ProfilePictureField is the multipart field name of the avatar upload
	ProfilePictureField = "profilePicture"
)

// TokenSource supplies the current session token. An empty string means no
// session.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func() string

// Token implements TokenSource
func (f TokenFunc) Token() string { return f() }

// APIError is a non-2xx response from the backend
type APIError struct {
	Status  int
	Message string // backend "msg" field, empty when the body had none
	Body    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// ErrorKind classifies the response status for the client's error handling
func (e *APIError) ErrorKind() errors.Kind {
	switch e.Status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errors.ErrValidation
	case http.StatusUnauthorized:
		return errors.ErrUnauthorized
	case http.StatusForbidden:
		return errors.ErrForbidden
	case http.StatusNotFound:
		return errors.ErrNotFound
	default:
		return errors.ErrInternal
	}
}

// UserMessage returns the server-supplied message
func (e *APIError) UserMessage() string {
	return e.Message
}

// ErrNoToken is returned by authenticated calls made without a session.
// No request is sent in that case.
var ErrNoToken = errors.Unauthorized("not logged in")

// messageResponse is the generic {msg} body the backend uses for
// acknowledgements and errors
type messageResponse struct {
	Msg    string `json:"msg"`
	Errors []struct {
		Msg string `json:"msg"`
	} `json:"errors"`
}

func (m messageResponse) message() string {
	if m.Msg != "" {
		return m.Msg
	}
	if len(m.Errors) > 0 {
		return m.Errors[0].Msg
	}
	return ""
}

// TokenResponse is the response of login and register
type TokenResponse struct {
	Token string `json:"token"`
}

// SubmitResult is the response of the create-or-update prediction call
type SubmitResult struct {
	Message    string            `json:"msg"`
	Prediction models.Prediction `json:"prediction"`
}

// ProfileResponse is the response of the preferences update
type ProfileResponse struct {
	Message string      `json:"msg"`
	User    models.User `json:"user"`
}

// UploadResult is the response of the avatar upload
type UploadResult struct {
	Message        string `json:"msg"`
	ProfilePicture string `json:"profilePicture"`
}

// Client defines the backend operations used by the client
type Client interface {
	// Login exchanges credentials for a session token
	Login(ctx context.Context, email, password string) (string, error)
	// Register creates an account and returns its session token
	Register(ctx context.Context, username, email, password string) (string, error)
	// CurrentUser returns the profile of the token's owner
	CurrentUser(ctx context.Context) (*models.User, error)
	// ListRaces returns the season calendar
	ListRaces(ctx context.Context) ([]models.Race, error)
	// GetRace returns one race
	GetRace(ctx context.Context, raceID string) (*models.Race, error)
	// MyPrediction returns the caller's prediction for a race; 404 when none
	MyPrediction(ctx context.Context, raceID string) (*models.Prediction, error)
	// SubmitPrediction creates or updates the caller's prediction
	SubmitPrediction(ctx context.Context, req models.PredictionRequest) (*SubmitResult, error)
	// UserPredictions returns a user's prediction history
	UserPredictions(ctx context.Context, userID string) ([]models.Prediction, error)
	// GetUser returns a user's public profile
	GetUser(ctx context.Context, userID string) (*models.User, error)
	// Ranking returns users ordered by total score, highest first
	Ranking(ctx context.Context) ([]models.User, error)
	// UpdatePreferences updates the caller's mutable profile fields
	UpdatePreferences(ctx context.Context, prefs models.Preferences) (*models.User, error)
	// RecordResult stores the official podium of a race
	RecordResult(ctx context.Context, result models.RaceResult) (string, error)
	// CalculateScores scores every prediction of a race
	CalculateScores(ctx context.Context, raceID string) (string, error)
	// UploadProfilePicture replaces the caller's avatar
	UploadProfilePicture(ctx context.Context, filename string, image io.Reader) (*UploadResult, error)
	// BaseURL returns the configured backend base URL
	BaseURL() string
	// SetBaseURL updates the backend base URL
	SetBaseURL(url string)
	// SetTokenSource sets where the session token is read from
	SetTokenSource(ts TokenSource)
}

// HTTPClient is the real backend client
type HTTPClient struct {
	mu         sync.RWMutex
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPClient creates a backend client with the default transport timeout
func NewHTTPClient(baseURL string, log logger.Logger) *HTTPClient {
	return NewHTTPClientWithHTTPClient(baseURL, &http.Client{Timeout: 30 * time.Second}, log)
}

// NewHTTPClientWithHTTPClient creates a backend client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// BaseURL returns the configured backend base URL
func (c *HTTPClient) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL updates the backend base URL
func (c *HTTPClient) SetBaseURL(url string) {
	c.mu.Lock()
	c.baseURL = strings.TrimSuffix(url, "/")
	c.mu.Unlock()
}

// SetTokenSource sets where the session token is read from
func (c *HTTPClient) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

func (c *HTTPClient) token() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts.Token()
}

// call describes one backend request
type call struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	auth        bool // fail without sending when there is no token
}

// do executes a request, checks the status and decodes the JSON response
// into out (which may be nil). The token is attached whenever one is set.
func (c *HTTPClient) do(ctx context.Context, cl call, out interface{}) error {
	token := c.token()
	if cl.auth && token == "" {
		return ErrNoToken
	}

	reqURL := c.BaseURL() + cl.path
	requestID := uuid.NewString()

	c.log.Debug("Backend request", "method", cl.method, "url", reqURL, "request_id", requestID)

	req, err := http.NewRequestWithContext(ctx, cl.method, reqURL, cl.body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to backend: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("Backend response", "status", resp.StatusCode, "request_id", requestID, "bytes", len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg messageResponse
		_ = json.Unmarshal(body, &msg)
		return &APIError{Status: resp.StatusCode, Message: msg.message(), Body: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *HTTPClient) get(ctx context.Context, path string, auth bool, out interface{}) error {
	return c.do(ctx, call{method: http.MethodGet, path: path, auth: auth}, out)
}

func (c *HTTPClient) send(ctx context.Context, method, path string, payload interface{}, auth bool, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, call{
		method:      method,
		path:        path,
		body:        bytes.NewReader(data),
		contentType: "application/json",
		auth:        auth,
	}, out)
}

// Login exchanges credentials for a session token
func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	var resp TokenResponse
	payload := map[string]string{"email": email, "password": password}
	if err := c.send(ctx, http.MethodPost, "/auth/login", payload, false, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	return resp.Token, nil
}

// Register creates an account and returns its session token
func (c *HTTPClient) Register(ctx context.Context, username, email, password string) (string, error) {
	var resp TokenResponse
	payload := map[string]string{"username": username, "email": email, "password": password}
	if err := c.send(ctx, http.MethodPost, "/auth/register", payload, false, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("register response carried no token")
	}
	return resp.Token, nil
}

// CurrentUser returns the profile of the token's owner
func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.get(ctx, "/auth/user", true, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListRaces returns the season calendar
func (c *HTTPClient) ListRaces(ctx context.Context) ([]models.Race, error) {
	var races []models.Race
	if err := c.get(ctx, "/races", false, &races); err != nil {
		return nil, err
	}
	return races, nil
}

// GetRace returns one race
func (c *HTTPClient) GetRace(ctx context.Context, raceID string) (*models.Race, error) {
	var race models.Race
	if err := c.get(ctx, "/races/"+url.PathEscape(raceID), false, &race); err != nil {
		return nil, err
	}
	return &race, nil
}

// MyPrediction returns the caller's prediction for a race
func (c *HTTPClient) MyPrediction(ctx context.Context, raceID string) (*models.Prediction, error) {
	var pred models.Prediction
	if err := c.get(ctx, "/predictions/"+url.PathEscape(raceID)+"/my", true, &pred); err != nil {
		return nil, err
	}
	return &pred, nil
}

// SubmitPrediction creates or updates the caller's prediction
func (c *HTTPClient) SubmitPrediction(ctx context.Context, req models.PredictionRequest) (*SubmitResult, error) {
	var resp SubmitResult
	if err := c.send(ctx, http.MethodPost, "/predictions", req, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserPredictions returns a user's prediction history
func (c *HTTPClient) UserPredictions(ctx context.Context, userID string) ([]models.Prediction, error) {
	var preds []models.Prediction
	if err := c.get(ctx, "/predictions/user/"+url.PathEscape(userID), true, &preds); err != nil {
		return nil, err
	}
	return preds, nil
}

// GetUser returns a user's public profile
func (c *HTTPClient) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := c.get(ctx, "/users/"+url.PathEscape(userID), false, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Ranking returns users ordered by total score
func (c *HTTPClient) Ranking(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.get(ctx, "/users/ranking", false, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdatePreferences updates the caller's mutable profile fields
func (c *HTTPClient) UpdatePreferences(ctx context.Context, prefs models.Preferences) (*models.User, error) {
	var resp ProfileResponse
	payload := map[string]interface{}{"preferences": prefs}
	if err := c.send(ctx, http.MethodPut, "/users/profile", payload, true, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// RecordResult stores the official podium of a race
func (c *HTTPClient) RecordResult(ctx context.Context, result models.RaceResult) (string, error) {
	var resp messageResponse
	if err := c.send(ctx, http.MethodPost, "/race-results", result, true, &resp); err != nil {
		return "", err
	}
	return resp.Msg, nil
}

// CalculateScores scores every prediction of a race
func (c *HTTPClient) CalculateScores(ctx context.Context, raceID string) (string, error) {
	var resp messageResponse
	path := "/race-results/" + url.PathEscape(raceID) + "/calculate-scores"
	if err := c.send(ctx, http.MethodPost, path, struct{}{}, true, &resp); err != nil {
		return "", err
	}
	return resp.Msg, nil
}

// UploadProfilePicture replaces the caller's avatar
func (c *HTTPClient) UploadProfilePicture(ctx context.Context, filename string, image io.Reader) (*UploadResult, error) {
	data, err := io.ReadAll(image)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, ProfilePictureField, filename))
	header.Set("Content-Type", http.DetectContentType(data))
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	var resp UploadResult
	err = c.do(ctx, call{
		method:      http.MethodPost,
		path:        "/upload/profile-picture",
		body:        &buf,
		contentType: mw.FormDataContentType(),
		auth:        true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
