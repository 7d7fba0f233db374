package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_SetsToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "alice", r.PostFormValue("username"))

		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123", "token_type": "bearer"})
	}))
	defer ts.Close()

	c := New(ts.URL)
	token, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
	assert.Equal(t, "tok-123", c.token)
}

func TestDo_ErrorDetailSurfaced(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "username already exists"})
	}))
	defer ts.Close()

	c := New(ts.URL)
	err := c.Register(context.Background(), "alice", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username already exists")
}

func TestPredict_UploadsMultipartWithBearer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/model/predict", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "samples.csv", header.Filename)

		json.NewEncoder(w).Encode(PredictResult{
			Predictions: []int{1, 0},
			NumSamples:  2,
			ReportID:    "r1",
			Persisted:   true,
		})
	}))
	defer ts.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "samples.csv")
	require.NoError(t, os.WriteFile(path, []byte("ph\n7.0\n6.5\n"), 0o600))

	c := New(ts.URL)
	c.SetToken("tok")

	res, err := c.Predict(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NumSamples)
	assert.Equal(t, "r1", res.ReportID)
	assert.True(t, res.Persisted)
}

func TestDrift(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/monitor/drift", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"drift_metric": 0.42, "status": "No Drift"})
	}))
	defer ts.Close()

	c := New(ts.URL)
	status, err := c.Drift(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.42, status.DriftMetric)
	assert.Equal(t, "No Drift", status.Status)
}
