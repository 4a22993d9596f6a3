// Package gemini is a minimal client for the Gemini generateContent API with
// model/version fallback. One request per submission; no streaming.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/glancehq/glance/internal/errors"
)

const (
	defaultBase = "https://generativelanguage.googleapis.com"

	// DefaultModel and DefaultVersion are used when the provider config
	// leaves them blank.
	DefaultModel   = "gemini-2.5-flash"
	DefaultVersion = "v1"

	// NoResponseText is returned when a 2xx response carries no text parts.
	NoResponseText = "No response text returned."
)

type Client struct {
	apiKey  string
	model   string
	version string
	base    string
	http    *http.Client
	log     *logrus.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host. Tests use this.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.base = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger replaces the default logger.
func WithLogger(log *logrus.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient builds a client for the given key, preferred model, and API
// version. Empty model or version fall back to the defaults.
func NewClient(apiKey, model, version string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		model:   strings.TrimSpace(model),
		version: strings.TrimSpace(version),
		base:    defaultBase,
		http:    &http.Client{},
		log:     logrus.StandardLogger(),
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.version == "" {
		c.version = DefaultVersion
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateInput is one submission: a prompt plus an optional inline image.
type GenerateInput struct {
	Prompt        string
	ImageData     []byte
	ImageMIMEType string
}

// Result carries the extracted text and the combo that produced it.
type Result struct {
	Text    string
	Model   string
	Version string
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate runs the fallback chain until one (model, version) combo answers.
// A 404 advances to the next combo; any other non-2xx status aborts with
// MODEL_REQUEST_FAILED. When every combo 404s, the returned
// MODEL_UNAVAILABLE error lists the tried combos and the models the API key
// can actually reach.
func (c *Client) Generate(ctx context.Context, input GenerateInput) (*Result, error) {
	body, err := json.Marshal(buildRequest(input))
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	var tried []string
	for _, combo := range fallbackCombos(c.model, c.version) {
		tried = append(tried, combo.Version+"/models/"+combo.Model)

		status, respBody, err := c.post(ctx, combo, body)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			c.log.WithFields(logrus.Fields{"model": combo.Model, "version": combo.Version}).
				Debug("model not found, trying next combo")
			continue
		}
		if status < 200 || status >= 300 {
			return nil, errors.NewModelRequest(status, serverMessage(respBody))
		}
		return &Result{Text: extractText(respBody), Model: combo.Model, Version: combo.Version}, nil
	}

	available, _ := c.ListModels(ctx, versionsToTry(c.version))
	return nil, errors.NewModelUnavailable(tried, suggestionFrom(available))
}

func buildRequest(input GenerateInput) generateRequest {
	parts := []part{{Text: input.Prompt}}
	if len(input.ImageData) > 0 {
		mime := input.ImageMIMEType
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: mime,
			Data:     base64.StdEncoding.EncodeToString(input.ImageData),
		}})
	}
	return generateRequest{Contents: []content{{Role: "user", Parts: parts}}}
}

func (c *Client) post(ctx context.Context, combo Combo, body []byte) (int, []byte, error) {
	endpoint := c.base + "/" + combo.Version + "/models/" + combo.Model +
		":generateContent?key=" + url.QueryEscape(c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, errors.NewInternal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, errors.NewModelRequest(0, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.NewModelRequest(resp.StatusCode, err.Error())
	}
	return resp.StatusCode, respBody, nil
}

// extractText joins the text parts of the first candidate with newlines.
// Empty or unparseable bodies yield the sentinel.
func extractText(body []byte) string {
	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
			return trimmed
		}
		return NoResponseText
	}
	if len(parsed.Candidates) == 0 {
		return NoResponseText
	}

	var texts []string
	for _, p := range parsed.Candidates[0].Content.Parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	out := strings.TrimSpace(strings.Join(texts, "\n"))
	if out == "" {
		return NoResponseText
	}
	return out
}

// serverMessage digs error.message out of an API error body, falling back to
// the raw body.
func serverMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return string(body)
}

func suggestionFrom(models []string) string {
	if len(models) == 0 {
		return ""
	}
	if len(models) > 10 {
		models = models[:10]
	}
	return "available models for this API key: " + strings.Join(models, ", ")
}
