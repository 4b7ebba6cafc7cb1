// Package api implements the REST client for the RetinaScan analysis
// service. All remote failures are reported through the typed errors in
// errors.go so callers can distinguish conflicts, stale records and
// transport problems without inspecting status codes themselves.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrsinham/retinascan/internal/model"
)

// Client talks to the analysis service. It is safe for use from a
// single event loop; no internal state changes after New.
type Client struct {
	baseURL string
	hc      *http.Client
	log     zerolog.Logger
}

// New creates a client for the service at baseURL. The transport's
// default timeout behaviour is kept; requests are bounded by the
// caller's context instead.
func New(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{},
		log:     log,
	}
}

// errorBody is the error payload shape used by every endpoint.
type errorBody struct {
	Error string `json:"error"`
}

// Analyze submits vitals and the scan image as a multipart request and
// returns the diagnosis produced by the inference pipeline.
func (c *Client) Analyze(ctx context.Context, vitals model.PatientVitals, filename string, image []byte) (*model.AnalysisResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("building multipart request: %w", err)
	}
	if _, err := fw.Write(image); err != nil {
		return nil, fmt.Errorf("building multipart request: %w", err)
	}

	fields := map[string]string{
		"name":   vitals.Name,
		"age":    strconv.Itoa(vitals.Age),
		"gender": string(vitals.Gender),
		"phone":  vitals.Phone,
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("building multipart request: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building multipart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/scan", &body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result model.AnalysisResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	c.log.Info().Str("patient", vitals.Name).Int("severity", int(result.Severity)).Msg("scan analyzed")
	return &result, nil
}

// History fetches the record summaries in server order.
func (c *Client) History(ctx context.Context) ([]model.RecordSummary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/history", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	var list []model.RecordSummary
	if err := c.do(req, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// PatientDetail fetches one record in full, images included.
func (c *Client) PatientDetail(ctx context.Context, id string) (*model.DiagnosisRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/patient/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	var rec model.DiagnosisRecord
	if err := c.do(req, &rec); err != nil {
		if IsNotFound(err) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, err
	}
	return &rec, nil
}

// DeletePatient removes one record.
func (c *Client) DeletePatient(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/patient/"+id, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if err := c.do(req, nil); err != nil {
		if IsNotFound(err) {
			return &NotFoundError{ID: id}
		}
		return err
	}
	c.log.Info().Str("id", id).Msg("record deleted")
	return nil
}

// Login authenticates the operator and returns the session identity.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	payload := map[string]string{"email": email, "password": password}
	var user model.User
	if err := c.postJSON(ctx, "/api/login", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates an operator account.
func (c *Client) Register(ctx context.Context, email, password, fullName string) error {
	payload := map[string]string{"email": email, "password": password, "fullName": fullName}
	return c.postJSON(ctx, "/api/register", payload, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do executes the request, classifies non-2xx responses into the error
// taxonomy and decodes a successful body into out when non-nil.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("url", req.URL.String()).Msg("request failed")
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.classify(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func (c *Client) classify(resp *http.Response) error {
	var eb errorBody
	// A missing or malformed error body is fine, the status code alone
	// is enough to classify.
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	json.Unmarshal(raw, &eb)

	c.log.Warn().Int("status", resp.StatusCode).Str("message", eb.Error).
		Str("url", resp.Request.URL.String()).Msg("service error")

	switch resp.StatusCode {
	case http.StatusConflict:
		msg := eb.Error
		if msg == "" {
			msg = "A record for this patient already exists."
		}
		return &ConflictError{Message: msg}
	case http.StatusNotFound:
		return &NotFoundError{}
	default:
		return &ServerError{Status: resp.StatusCode, Message: eb.Error}
	}
}
