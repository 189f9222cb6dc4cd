package f1api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"

	"github.com/abrezinsky/f1bet/internal/models"
)

// MockClient is an in-memory backend used by tests
type MockClient struct {
	mu          sync.Mutex
	baseURL     string
	tokens      TokenSource
	issuedToken string
	user        *models.User
	users       map[string]models.User
	races       []models.Race
	predictions map[string]models.Prediction // raceID -> caller's prediction
	history     map[string][]models.Prediction
	forbidden   map[string]bool // userIDs whose history is not visible
	results     map[string]models.RaceResult
	scored      map[string]bool
	errs        map[string]error // method name -> forced error
	calls       map[string]int
	seenTokens  []string
	nextID      int
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithUser sets the account the issued token belongs to
func WithUser(user models.User) MockOption {
	return func(m *MockClient) {
		u := user
		m.user = &u
		m.users[u.ID] = u
	}
}

// WithUsers adds users visible through GetUser and Ranking
func WithUsers(users ...models.User) MockOption {
	return func(m *MockClient) {
		for _, u := range users {
			m.users[u.ID] = u
		}
	}
}

// WithRaces sets the race calendar
func WithRaces(races ...models.Race) MockOption {
	return func(m *MockClient) {
		m.races = append([]models.Race{}, races...)
	}
}

// WithPrediction seeds the caller's prediction for a race
func WithPrediction(p models.Prediction) MockOption {
	return func(m *MockClient) {
		m.predictions[p.Race.ID] = p
	}
}

// WithHistory sets the prediction history returned for a user
func WithHistory(userID string, preds ...models.Prediction) MockOption {
	return func(m *MockClient) {
		m.history[userID] = preds
	}
}

// WithForbiddenHistory makes a user's history answer 403
func WithForbiddenHistory(userID string) MockOption {
	return func(m *MockClient) {
		m.forbidden[userID] = true
	}
}

// WithIssuedToken sets the token returned by Login and Register
func WithIssuedToken(token string) MockOption {
	return func(m *MockClient) {
		m.issuedToken = token
	}
}

// WithError forces a method (by name, e.g. "Ranking") to fail with err
func WithError(method string, err error) MockOption {
	return func(m *MockClient) {
		m.errs[method] = err
	}
}

// WithBaseURL sets the base URL
func WithBaseURL(url string) MockOption {
	return func(m *MockClient) {
		m.baseURL = url
	}
}

// NewMockClient creates a mock backend with an empty calendar
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		baseURL:     "http://mock-backend.local",
		issuedToken: "mock-token",
		users:       make(map[string]models.User),
		predictions: make(map[string]models.Prediction),
		history:     make(map[string][]models.Prediction),
		forbidden:   make(map[string]bool),
		results:     make(map[string]models.RaceResult),
		scored:      make(map[string]bool),
		errs:        make(map[string]error),
		calls:       make(map[string]int),
		nextID:      1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetError forces a method to fail from now on; nil clears it
func (m *MockClient) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, method)
		return
	}
	m.errs[method] = err
}

// SetIssuedToken changes the token later logins receive. Calls made with
// the previous token are rejected from then on.
func (m *MockClient) SetIssuedToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issuedToken = token
}

// CallCount returns how many times a method reached the backend
func (m *MockClient) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls returns the number of calls that reached the backend
func (m *MockClient) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// SeenTokens returns the token attached to each call, in order
func (m *MockClient) SeenTokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.seenTokens...)
}

// StoredPrediction returns the caller's stored prediction for a race
func (m *MockClient) StoredPrediction(raceID string) (models.Prediction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.predictions[raceID]
	return p, ok
}

// SetRaceOpen flips a race's prediction window
func (m *MockClient) SetRaceOpen(raceID string, open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.races {
		if m.races[i].ID == raceID {
			m.races[i].IsPredictionOpen = open
		}
	}
}

// enter records a call and returns the forced error, if any. Auth calls
// without a token are rejected before they count as reaching the backend.
// Callers must hold m.mu.
func (m *MockClient) enter(method string, auth bool) error {
	token := ""
	if m.tokens != nil {
		token = m.tokens.Token()
	}
	if auth && token == "" {
		return ErrNoToken
	}
	m.calls[method]++
	m.seenTokens = append(m.seenTokens, token)
	if err := m.errs[method]; err != nil {
		return err
	}
	if auth && token != m.issuedToken {
		return &APIError{Status: http.StatusUnauthorized, Message: "Token is not valid"}
	}
	return nil
}

func notFound(msg string) error {
	return &APIError{Status: http.StatusNotFound, Message: msg}
}

// BaseURL returns the configured base URL
func (m *MockClient) BaseURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseURL
}

// SetBaseURL updates the base URL
func (m *MockClient) SetBaseURL(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseURL = url
}

// SetTokenSource sets where the session token is read from
func (m *MockClient) SetTokenSource(ts TokenSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = ts
}

// Login returns the issued token
func (m *MockClient) Login(ctx context.Context, email, password string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Login", false); err != nil {
		return "", err
	}
	return m.issuedToken, nil
}

// Register returns the issued token
func (m *MockClient) Register(ctx context.Context, username, email, password string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Register", false); err != nil {
		return "", err
	}
	if m.user == nil {
		m.user = &models.User{ID: "u-new", Username: username, Email: email}
		m.users[m.user.ID] = *m.user
	}
	return m.issuedToken, nil
}

// CurrentUser returns the configured user
func (m *MockClient) CurrentUser(ctx context.Context) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CurrentUser", true); err != nil {
		return nil, err
	}
	if m.user == nil {
		return nil, &APIError{Status: http.StatusUnauthorized, Message: "Token is not valid"}
	}
	u := *m.user
	return &u, nil
}

// ListRaces returns the calendar
func (m *MockClient) ListRaces(ctx context.Context) ([]models.Race, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListRaces", false); err != nil {
		return nil, err
	}
	return append([]models.Race{}, m.races...), nil
}

// GetRace returns one race
func (m *MockClient) GetRace(ctx context.Context, raceID string) (*models.Race, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetRace", false); err != nil {
		return nil, err
	}
	for _, r := range m.races {
		if r.ID == raceID {
			race := r
			return &race, nil
		}
	}
	return nil, notFound("Race not found")
}

// MyPrediction returns the seeded or submitted prediction
func (m *MockClient) MyPrediction(ctx context.Context, raceID string) (*models.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("MyPrediction", true); err != nil {
		return nil, err
	}
	p, ok := m.predictions[raceID]
	if !ok {
		return nil, notFound("Prediction not found")
	}
	return &p, nil
}

// SubmitPrediction upserts the caller's prediction. Closed races are rejected.
func (m *MockClient) SubmitPrediction(ctx context.Context, req models.PredictionRequest) (*SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("SubmitPrediction", true); err != nil {
		return nil, err
	}

	var race *models.Race
	for i := range m.races {
		if m.races[i].ID == req.RaceID {
			race = &m.races[i]
		}
	}
	if race == nil {
		return nil, notFound("Race not found")
	}
	if !race.IsPredictionOpen {
		return nil, &APIError{Status: http.StatusBadRequest, Message: "Predictions are closed for this race"}
	}

	msg := "Prediction updated"
	p, exists := m.predictions[req.RaceID]
	if !exists {
		msg = "Prediction created"
		p = models.Prediction{ID: fmt.Sprintf("pred-%d", m.nextID), Race: models.RaceRef{ID: req.RaceID}}
		if m.user != nil {
			p.User = m.user.ID
		}
		m.nextID++
	}
	p.PredictedWinner = req.PredictedWinner
	p.PredictedSecond = req.PredictedSecond
	p.PredictedThird = req.PredictedThird
	m.predictions[req.RaceID] = p

	return &SubmitResult{Message: msg, Prediction: p}, nil
}

// UserPredictions returns the seeded history
func (m *MockClient) UserPredictions(ctx context.Context, userID string) ([]models.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UserPredictions", true); err != nil {
		return nil, err
	}
	if m.forbidden[userID] {
		return nil, &APIError{Status: http.StatusForbidden, Message: "Access denied"}
	}
	if _, ok := m.users[userID]; !ok {
		return nil, notFound("User not found")
	}
	return append([]models.Prediction{}, m.history[userID]...), nil
}

// GetUser returns a known user
func (m *MockClient) GetUser(ctx context.Context, userID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetUser", false); err != nil {
		return nil, err
	}
	if m.user != nil && m.user.ID == userID {
		u := *m.user
		return &u, nil
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, notFound("User not found")
	}
	return &u, nil
}

// Ranking returns known users by descending score
func (m *MockClient) Ranking(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Ranking", false); err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return less(users[i], users[j]) })
	return users, nil
}

func less(a, b models.User) bool {
	if a.TotalScore != b.TotalScore {
		return a.TotalScore > b.TotalScore
	}
	return a.Username < b.Username
}

// UpdatePreferences stores the preferences on the configured user
func (m *MockClient) UpdatePreferences(ctx context.Context, prefs models.Preferences) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdatePreferences", true); err != nil {
		return nil, err
	}
	if m.user == nil {
		return nil, notFound("User not found")
	}
	m.user.Preferences = prefs
	m.users[m.user.ID] = *m.user
	u := *m.user
	return &u, nil
}

// RecordResult stores an official result
func (m *MockClient) RecordResult(ctx context.Context, result models.RaceResult) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("RecordResult", true); err != nil {
		return "", err
	}
	m.results[result.RaceID] = result
	return "Race result recorded", nil
}

// CalculateScores marks a race scored; a second run is rejected
func (m *MockClient) CalculateScores(ctx context.Context, raceID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CalculateScores", true); err != nil {
		return "", err
	}
	if _, ok := m.results[raceID]; !ok {
		return "", &APIError{Status: http.StatusBadRequest, Message: "No official result recorded for this race"}
	}
	if m.scored[raceID] {
		return "", &APIError{Status: http.StatusBadRequest, Message: "Scores have already been calculated for this race"}
	}
	m.scored[raceID] = true
	return "Scores calculated", nil
}

// UploadProfilePicture sets the configured user's avatar
func (m *MockClient) UploadProfilePicture(ctx context.Context, filename string, image io.Reader) (*UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UploadProfilePicture", true); err != nil {
		return nil, err
	}
	if _, err := io.Copy(io.Discard, image); err != nil {
		return nil, err
	}
	if m.user == nil {
		return nil, notFound("User not found")
	}
	m.user.ProfilePicture = "/uploads/" + filename
	m.users[m.user.ID] = *m.user
	return &UploadResult{Message: "Profile picture updated", ProfilePicture: m.user.ProfilePicture}, nil
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)
