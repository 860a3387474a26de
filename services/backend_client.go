package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"adwizard/models"
)

// BackendClient talks to the video generation backend. Each method maps to
// one backend call; payload validation is the caller's job.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBackendClient creates a client for the backend at baseURL.
// A zero timeout disables the client-side timeout.
func NewBackendClient(baseURL string, timeout time.Duration) *BackendClient {
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ScrapeProduct starts stage 1: scrape product data from a URL.
// A success response without a session id is treated as a failure.
func (bc *BackendClient) ScrapeProduct(ctx context.Context, productURL string) (*models.ScrapeResponse, error) {
	const op = "scrape-product"

	form := url.Values{}
	form.Set("url", productURL)

	var resp models.ScrapeResponse
	if err := bc.postForm(ctx, op, "/scrape-product", form, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, requestFailed(op, orGeneric(resp.Error, "scraping failed"))
	}
	if resp.SessionID == "" {
		return nil, requestFailed(op, "backend returned no session id")
	}
	return &resp, nil
}

// GenerateScript starts stage 2: generate the ad script for a session.
func (bc *BackendClient) GenerateScript(ctx context.Context, sessionID, tone string) (*models.ScriptResponse, error) {
	const op = "generate-script"

	form := url.Values{}
	form.Set("session_id", sessionID)
	form.Set("tone", tone)

	var resp models.ScriptResponse
	if err := bc.postForm(ctx, op, "/generate-script", form, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, requestFailed(op, orGeneric(resp.Error, "script generation failed"))
	}
	return &resp, nil
}

// CreateVideo starts stage 3: render the video. Booleans are transmitted
// as the literal strings "true"/"false" per the backend contract.
func (bc *BackendClient) CreateVideo(ctx context.Context, sessionID string, settings models.RenderSettings) (*models.VideoResponse, error) {
	const op = "create-video"

	form := url.Values{}
	form.Set("session_id", sessionID)
	form.Set("aspect_ratio", settings.AspectRatio)
	form.Set("template", settings.Template)
	form.Set("voice_tone", settings.VoiceTone)
	form.Set("enable_karaoke", strconv.FormatBool(settings.EnableKaraoke))
	form.Set("include_voiceover", strconv.FormatBool(settings.IncludeVoiceover))
	form.Set("include_music", strconv.FormatBool(settings.IncludeMusic))
	form.Set("background_music", settings.BackgroundMusic)

	var resp models.VideoResponse
	if err := bc.postForm(ctx, op, "/create-video", form, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, requestFailed(op, orGeneric(resp.Error, "video creation failed"))
	}
	return &resp, nil
}

// GetSession fetches the full session record.
func (bc *BackendClient) GetSession(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	const op = "get-session"

	var record models.SessionRecord
	if err := bc.get(ctx, op, "/session/"+sessionID, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetStatus fetches the lightweight session status.
func (bc *BackendClient) GetStatus(ctx context.Context, sessionID string) (*models.StatusRecord, error) {
	const op = "get-status"

	var record models.StatusRecord
	if err := bc.get(ctx, op, "/status/"+sessionID, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// WaitForStatus polls the backend until the session reaches the target
// status, reports an error status, or the timeout elapses. Opt-in helper;
// the primary flow does not use it.
func (bc *BackendClient) WaitForStatus(ctx context.Context, sessionID, target string, interval, timeout time.Duration) (*models.StatusRecord, error) {
	const op = "wait-for-status"

	deadline := time.Now().Add(timeout)
	for {
		record, err := bc.GetStatus(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if record.Status == target {
			return record, nil
		}
		if record.Status == "error" {
			return record, requestFailed(op, orGeneric(record.Error, "session entered error state"))
		}
		if time.Now().After(deadline) {
			return record, requestFailed(op, fmt.Sprintf("timed out waiting for status %q (last: %q)", target, record.Status))
		}
		select {
		case <-ctx.Done():
			return record, transportUnavailable(op, ctx.Err())
		case <-time.After(interval):
		}
	}
}

// CleanupSession asks the backend to discard a session record and its
// files. Best-effort companion to a client-side reset.
func (bc *BackendClient) CleanupSession(ctx context.Context, sessionID string) error {
	const op = "cleanup-session"

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, bc.baseURL+"/session/"+sessionID, nil)
	if err != nil {
		return requestFailed(op, err.Error())
	}

	resp, err := bc.httpClient.Do(req)
	if err != nil {
		return transportUnavailable(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return requestFailed(op, errorMessage(body, resp.StatusCode))
	}
	return nil
}

// DownloadVideo opens the video stream for a session. The caller owns the
// returned body and must close it.
func (bc *BackendClient) DownloadVideo(ctx context.Context, sessionID string) (io.ReadCloser, string, error) {
	const op = "download"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bc.DownloadURL(sessionID, false), nil)
	if err != nil {
		return nil, "", requestFailed(op, err.Error())
	}

	resp, err := bc.httpClient.Do(req)
	if err != nil {
		return nil, "", transportUnavailable(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, "", requestFailed(op, errorMessage(body, resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	return resp.Body, contentType, nil
}

// DownloadURL builds the backend download URL for direct navigation.
func (bc *BackendClient) DownloadURL(sessionID string, preview bool) string {
	u := bc.baseURL + "/download/" + sessionID
	if preview {
		u += "?preview=true"
	}
	return u
}

// postForm sends a form-encoded POST and decodes the JSON response into out.
func (bc *BackendClient) postForm(ctx context.Context, op, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, bc.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return requestFailed(op, err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return bc.send(op, req, out)
}

// get sends a GET and decodes the JSON response into out.
func (bc *BackendClient) get(ctx context.Context, op, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bc.baseURL+path, nil)
	if err != nil {
		return requestFailed(op, err.Error())
	}

	return bc.send(op, req, out)
}

func (bc *BackendClient) send(op string, req *http.Request, out interface{}) error {
	resp, err := bc.httpClient.Do(req)
	if err != nil {
		return transportUnavailable(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportUnavailable(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return requestFailed(op, errorMessage(body, resp.StatusCode))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return requestFailed(op, fmt.Sprintf("invalid response from backend: %v", err))
		}
	}
	return nil
}

// errorMessage extracts a human-readable message from an error body.
// Tries the "error" field, then FastAPI's "detail", then the raw body
// text, then a generic HTTP status message.
func errorMessage(body []byte, statusCode int) string {
	var parsed struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Detail != "" {
			return parsed.Detail
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 300 {
		return text
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}

func orGeneric(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}
