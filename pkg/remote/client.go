// Package remote talks to a Rapid Typst HTTP backend. A Client can stand in
// for the local compiler, document store, template provider and exporter.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/catalog"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/store"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 60 * time.Second

// ErrUnexpectedResponse is returned for malformed backend replies.
var ErrUnexpectedResponse = errors.New("unexpected response from backend")

// StatusError is a non-2xx reply.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}

// Client is an HTTP client for the /api routes.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTP = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: DefaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("remote")
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body string) ([]byte, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+"/api"+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := ""
		if gjson.ValidBytes(data) {
			detail = gjson.GetBytes(data, "detail").String()
		}
		return nil, &StatusError{Status: resp.StatusCode, Detail: detail}
	}
	return data, nil
}

func isNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

func jsonBody(fields ...string) (string, error) {
	body := "{}"
	for i := 0; i+1 < len(fields); i += 2 {
		var err error
		body, err = sjson.Set(body, fields[i], fields[i+1])
		if err != nil {
			return "", fmt.Errorf("failed to encode request: %w", err)
		}
	}
	return body, nil
}

// Compile asks the backend to render source. Compile failures come back
// as error results.
func (c *Client) Compile(ctx context.Context, source string) (models.RenderResult, error) {
	body, err := jsonBody("content", source)
	if err != nil {
		return models.RenderResult{}, err
	}
	data, err := c.do(ctx, http.MethodPost, "/compile", body)
	if err != nil {
		return models.RenderResult{}, err
	}
	if !gjson.ValidBytes(data) {
		return models.RenderResult{}, ErrUnexpectedResponse
	}

	r := gjson.ParseBytes(data)
	res := models.RenderResult{HTML: r.Get("html").String()}
	if !r.Get("success").Bool() {
		res.Err = r.Get("error").String()
		if res.Err == "" {
			res.Err = "Compilation failed"
		}
		return res, nil
	}
	res.Pages = strings.Count(res.HTML, "<svg")
	return res, nil
}

// Export downloads the artifact for format.
func (c *Client) Export(ctx context.Context, source string, format models.ExportFormat) ([]byte, error) {
	if _, err := models.ParseExportFormat(string(format)); err != nil {
		return nil, err
	}
	body, err := jsonBody("content", source, "format", string(format))
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, http.MethodPost, "/export/"+string(format), body)
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", format, err)
	}
	return data, nil
}

func parseDocument(r gjson.Result) (*models.Document, error) {
	if !r.IsObject() || r.Get("id").String() == "" {
		return nil, ErrUnexpectedResponse
	}
	return &models.Document{
		ID:        r.Get("id").String(),
		Title:     r.Get("title").String(),
		Content:   r.Get("content").String(),
		CreatedAt: r.Get("created_at").Time().UTC(),
		UpdatedAt: r.Get("updated_at").Time().UTC(),
	}, nil
}

func (c *Client) List(ctx context.Context) ([]models.Document, error) {
	data, err := c.do(ctx, http.MethodGet, "/documents", "")
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	r := gjson.ParseBytes(data)
	if !r.IsArray() {
		return nil, ErrUnexpectedResponse
	}

	var docs []models.Document
	for _, item := range r.Array() {
		d, err := parseDocument(item)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	store.SortByUpdated(docs)
	return docs, nil
}

func (c *Client) Get(ctx context.Context, id string) (*models.Document, error) {
	data, err := c.do(ctx, http.MethodGet, "/documents/"+url.PathEscape(id), "")
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return parseDocument(gjson.ParseBytes(data))
}

func (c *Client) Create(ctx context.Context, title, content string) (*models.Document, error) {
	if err := models.ValidateTitle(title); err != nil {
		return nil, err
	}
	body, err := jsonBody("title", models.NormalizeTitle(title), "content", content)
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, http.MethodPost, "/documents", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return parseDocument(gjson.ParseBytes(data))
}

func (c *Client) Update(ctx context.Context, id, content string) (*models.Document, error) {
	body, err := jsonBody("content", content)
	if err != nil {
		return nil, err
	}
	return c.put(ctx, id, body)
}

func (c *Client) Rename(ctx context.Context, id, title string) (*models.Document, error) {
	if err := models.ValidateTitle(title); err != nil {
		return nil, err
	}
	body, err := jsonBody("title", models.NormalizeTitle(title))
	if err != nil {
		return nil, err
	}
	return c.put(ctx, id, body)
}

func (c *Client) put(ctx context.Context, id, body string) (*models.Document, error) {
	data, err := c.do(ctx, http.MethodPut, "/documents/"+url.PathEscape(id), body)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	return parseDocument(gjson.ParseBytes(data))
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/documents/"+url.PathEscape(id), "")
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// ListTemplates fetches the backend's template descriptors.
func (c *Client) ListTemplates(ctx context.Context) ([]models.TemplateDescriptor, error) {
	data, err := c.do(ctx, http.MethodGet, "/templates", "")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	r := gjson.ParseBytes(data)
	if !r.IsArray() {
		return nil, ErrUnexpectedResponse
	}

	var out []models.TemplateDescriptor
	r.ForEach(func(_, t gjson.Result) bool {
		out = append(out, models.TemplateDescriptor{
			ID:          t.Get("id").String(),
			Name:        t.Get("name").String(),
			Description: t.Get("description").String(),
			Icon:        t.Get("icon").String(),
			Category:    t.Get("category").String(),
		})
		return true
	})
	return out, nil
}

// TemplateContent fetches one template's source.
func (c *Client) TemplateContent(ctx context.Context, id string) (string, error) {
	data, err := c.do(ctx, http.MethodGet, "/templates/"+url.PathEscape(id), "")
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%w: %s", catalog.ErrTemplateNotFound, id)
		}
		return "", fmt.Errorf("failed to load template: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return "", ErrUnexpectedResponse
	}
	content := gjson.GetBytes(data, "content")
	if !content.Exists() {
		return "", ErrUnexpectedResponse
	}
	return content.String(), nil
}

var (
	_ store.Store      = (*Client)(nil)
	_ catalog.Provider = (*Client)(nil)
)
