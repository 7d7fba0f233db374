// Package api is a thin HTTP client for the AquaWatch service, used by
// the command-line frontend. It is stateless apart from the bearer token
// captured at login.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs a previously obtained bearer token.
func (c *Client) SetToken(token string) {
	c.token = token
}

type PredictResult struct {
	Message     string `json:"message"`
	Predictions []int  `json:"predictions"`
	NumSamples  int    `json:"num_samples"`
	ReportID    string `json:"report_id"`
	Persisted   bool   `json:"persisted"`
}

type Report struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	SourceName  string    `json:"source_name"`
	Predictions []int     `json:"predictions"`
	SampleCount int       `json:"sample_count"`
}

type DriftStatus struct {
	Timestamp   time.Time `json:"timestamp"`
	DriftMetric float64   `json:"drift_metric"`
	Status      string    `json:"status"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Detail != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Detail)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) Register(ctx context.Context, username, password string) error {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/register", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, nil)
}

// Login obtains a bearer token and installs it on the client.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{"username": {username}, "password": {password}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}

	c.token = out.AccessToken
	return out.AccessToken, nil
}

func (c *Client) uploadFile(ctx context.Context, endpoint, path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req, out)
}

func (c *Client) Predict(ctx context.Context, path string) (*PredictResult, error) {
	out := &PredictResult{}
	if err := c.uploadFile(ctx, "/model/predict", path, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Explain(ctx context.Context, path string) ([][]float64, error) {
	var out struct {
		Explanations [][]float64 `json:"explanations"`
	}
	if err := c.uploadFile(ctx, "/model/explain", path, &out); err != nil {
		return nil, err
	}
	return out.Explanations, nil
}

func (c *Client) Reports(ctx context.Context) ([]Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/model/reports", nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Reports []Report `json:"reports"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Reports, nil
}

func (c *Client) Report(ctx context.Context, id string) (*Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/model/reports/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Report Report `json:"report"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out.Report, nil
}

func (c *Client) Drift(ctx context.Context) (*DriftStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/monitor/drift", nil)
	if err != nil {
		return nil, err
	}

	out := &DriftStatus{}
	if err := c.do(req, out); err != nil {
		return nil, err
	}
	return out, nil
}
