// Package client is a small HTTP client for the prediction API, used by
// heartctl and by smoke tests against a running server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iliyamo/heart-disease-api/internal/model"
)

// DefaultBaseURL matches the server's default port.
const DefaultBaseURL = "http://localhost:5000"

// SamplePatients are the two reference patients used by the smoke test and
// the local demo.
var SamplePatients = []model.PatientRecord{
	{
		Age: 52, Sex: "M", ChestPainType: "ASY", RestingBP: 125, Cholesterol: 212, FastingBS: 0,
		RestingECG: "Normal", MaxHR: 168, ExerciseAngina: "N", Oldpeak: 1.0, STSlope: "Flat",
	},
	{
		Age: 45, Sex: "F", ChestPainType: "ATA", RestingBP: 130, Cholesterol: 240, FastingBS: 0,
		RestingECG: "Normal", MaxHR: 150, ExerciseAngina: "N", Oldpeak: 0.5, STSlope: "Up",
	},
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Health returns the decoded /health body.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

// Predict posts any JSON-encodable patient payload.
func (c *Client) Predict(ctx context.Context, patient any) (model.Prediction, error) {
	var out model.Prediction
	err := c.do(ctx, http.MethodPost, "/predict", patient, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	return json.Unmarshal(data, out)
}
