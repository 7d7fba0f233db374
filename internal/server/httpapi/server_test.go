package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/aquawatch/aquawatch/internal/common"
	"github.com/aquawatch/aquawatch/internal/logging"
	"github.com/aquawatch/aquawatch/internal/server/auth"
	"github.com/aquawatch/aquawatch/internal/server/config"
	"github.com/aquawatch/aquawatch/internal/server/drift"
	"github.com/aquawatch/aquawatch/internal/server/inference"
	"github.com/aquawatch/aquawatch/internal/server/model"
	"github.com/aquawatch/aquawatch/internal/server/reports"
	"github.com/aquawatch/aquawatch/internal/server/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory repositories ---

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*users.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*users.User)}
}

func (m *memUserRepo) Create(ctx context.Context, u *users.User) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Username]; ok {
		return nil, common.ErrUsernameTaken
	}
	u.ID = "id-" + u.Username
	u.CreatedAt = time.Now()
	m.users[u.Username] = u
	return u, nil
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

type memReportRepo struct {
	mu      sync.Mutex
	seq     int
	reports []*reports.Report
}

func (m *memReportRepo) Create(ctx context.Context, r *reports.Report) (*reports.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	r.ID = "00000000-0000-0000-0000-00000000000" + string(rune('0'+m.seq))
	r.CreatedAt = time.Now()
	m.reports = append(m.reports, r)
	return r, nil
}

func (m *memReportRepo) ListByOwner(ctx context.Context, owner string) ([]*reports.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*reports.Report, 0)
	for i := len(m.reports) - 1; i >= 0; i-- {
		if m.reports[i].Owner == owner {
			out = append(out, m.reports[i])
		}
	}
	return out, nil
}

func (m *memReportRepo) GetByOwnerAndID(ctx context.Context, owner, id string) (*reports.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.ID == id && r.Owner == owner {
			return r, nil
		}
	}
	return nil, common.ErrNotFound
}

// --- harness ---

const testSecret = "test-secret"

type harness struct {
	ts *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = testSecret

	logger := logging.NewSlogLogger(slog.New(slog.DiscardHandler))

	us := users.NewService(newMemUserRepo(), cfg)
	rs := reports.NewService(&memReportRepo{})
	is := inference.NewService(model.NewThreshold(5.0, 0), rs, nil, logger, cfg)
	est := drift.NewEstimator(drift.RandomScorer{}, cfg.DriftThreshold)

	srv := NewServer(":0", logger, us, is, rs, est, cfg.SecretKey)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &harness{ts: ts}
}

func (h *harness) register(t *testing.T, username, password string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(h.ts.URL+"/auth/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func (h *harness) login(t *testing.T, username, password string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	resp, err := http.PostForm(h.ts.URL+"/auth/token", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "bearer", out.TokenType)
	return out.AccessToken
}

func (h *harness) upload(t *testing.T, path, token, filename, contents string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, contents)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, h.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (h *harness) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

const validCSV = "ph,turbidity,Potability\n7.0,3.1,1\n6.5,4.0,0\n"

// --- tests ---

func TestRegister_ThenDuplicate(t *testing.T) {
	h := newHarness(t)

	resp := h.register(t, "alice", "pw")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = h.register(t, "alice", "other")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestRegister_MissingFields(t *testing.T) {
	h := newHarness(t)

	resp := h.register(t, "", "pw")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestToken_InvalidCredentials(t *testing.T) {
	h := newHarness(t)

	h.register(t, "bob", "right").Body.Close()

	form := url.Values{"username": {"bob"}, "password": {"wrong"}}
	resp, err := http.PostForm(h.ts.URL+"/auth/token", form)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestPredict_RequiresToken(t *testing.T) {
	h := newHarness(t)

	resp := h.upload(t, "/model/predict", "", "samples.csv", validCSV)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestPredict_ExpiredToken(t *testing.T) {
	h := newHarness(t)

	h.register(t, "carol", "pw").Body.Close()
	expired, err := auth.GenerateToken("carol", []byte(testSecret), -time.Second)
	require.NoError(t, err)

	resp := h.upload(t, "/model/predict", expired, "samples.csv", validCSV)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestPredict_UnknownIdentity(t *testing.T) {
	h := newHarness(t)

	// valid signature, but the subject was never registered (or was
	// deleted after issuance)
	tok, err := auth.GenerateToken("ghost", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	resp := h.upload(t, "/model/predict", tok, "samples.csv", validCSV)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestPredict_Success(t *testing.T) {
	h := newHarness(t)

	h.register(t, "dave", "pw").Body.Close()
	token := h.login(t, "dave", "pw")

	resp := h.upload(t, "/model/predict", token, "samples.csv", validCSV)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["num_samples"])
	assert.Len(t, body["predictions"], 2)
	assert.Equal(t, true, body["persisted"])
	assert.NotEmpty(t, body["report_id"])
}

func TestPredict_ValidationErrors(t *testing.T) {
	h := newHarness(t)

	h.register(t, "erin", "pw").Body.Close()
	token := h.login(t, "erin", "pw")

	tests := []struct {
		name     string
		filename string
		contents string
	}{
		{"not a csv", "samples.txt", validCSV},
		{"header only", "empty.csv", "ph,turbidity\n"},
		{"label only", "label.csv", "Potability\n1\n"},
		{"non numeric", "bad.csv", "ph\nabc\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := h.upload(t, "/model/predict", token, tc.filename, tc.contents)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			resp.Body.Close()
		})
	}
}

func TestExplain_Success(t *testing.T) {
	h := newHarness(t)

	h.register(t, "frank", "pw").Body.Close()
	token := h.login(t, "frank", "pw")

	resp := h.upload(t, "/model/explain", token, "samples.csv", validCSV)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	explanations, ok := body["explanations"].([]any)
	require.True(t, ok)
	assert.Len(t, explanations, 2)
}

func TestReports_OwnershipIsolation(t *testing.T) {
	h := newHarness(t)

	h.register(t, "anna", "pw").Body.Close()
	h.register(t, "boris", "pw").Body.Close()
	annaToken := h.login(t, "anna", "pw")
	borisToken := h.login(t, "boris", "pw")

	// anna runs one prediction
	resp := h.upload(t, "/model/predict", annaToken, "samples.csv", validCSV)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reportID, _ := decodeBody(t, resp)["report_id"].(string)
	require.NotEmpty(t, reportID)

	// visible to anna, id excluded from the listing shape
	resp = h.get(t, "/model/reports", annaToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["total_reports"])
	first := body["reports"].([]any)[0].(map[string]any)
	_, hasID := first["id"]
	assert.False(t, hasID, "listing must not expose storage ids")

	// invisible to boris
	resp = h.get(t, "/model/reports", borisToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), decodeBody(t, resp)["total_reports"])

	// boris fetching anna's report by id gets NotFound, not Forbidden
	resp = h.get(t, "/model/reports/"+reportID, borisToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// anna sees the id on single fetch
	resp = h.get(t, "/model/reports/"+reportID, annaToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decodeBody(t, resp)["report"].(map[string]any)
	assert.Equal(t, reportID, report["id"])
}

func TestDrift_PublicAndConsistent(t *testing.T) {
	h := newHarness(t)

	for range 20 {
		resp := h.get(t, "/monitor/drift", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		score := body["drift_metric"].(float64)
		status := body["status"].(string)

		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
		if score > drift.DefaultThreshold {
			assert.Equal(t, string(drift.StatusDetected), status)
		} else {
			assert.Equal(t, string(drift.StatusNoDrift), status)
		}
	}
}
