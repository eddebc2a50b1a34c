// Package unstructured partitions documents through the Unstructured
// partition HTTP API (POST /general/v0/general).
package unstructured

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/pdfingest/internal/element"
	"github.com/JakeFAU/pdfingest/internal/pipeline"
)

const (
	partitionPath = "/general/v0/general"
	apiKeyHeader  = "unstructured-api-key"
	// maxErrorBody bounds how much of a failed response ends up in the error.
	maxErrorBody = 512
)

// Config points the client at an Unstructured API deployment.
type Config struct {
	URL      string
	APIKey   string
	Strategy string
	Timeout  time.Duration
}

// Client implements pipeline.Partitioner.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New builds a client. httpClient may be nil.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("unstructured url is required")
	}
	cfg.URL = strings.TrimSuffix(cfg.URL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}, nil
}

// Partition uploads the document and decodes the returned element array.
func (c *Client) Partition(ctx context.Context, in pipeline.PartitionInput) ([]element.Value, error) {
	body, contentType, err := c.encode(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+partitionPath, body)
	if err != nil {
		return nil, fmt.Errorf("build partition request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set(apiKeyHeader, c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("partition request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // drained below

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read partition response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, fmt.Errorf("partition api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	elements, err := element.ParseList(data)
	if err != nil {
		return nil, fmt.Errorf("decode partition response: %w", err)
	}
	c.logger.Debug("partition api responded",
		zap.String("filename", in.Filename),
		zap.Int("elements", len(elements)),
	)
	return elements, nil
}

func (c *Client) encode(in pipeline.PartitionInput) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, in.Filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("encode file part: %w", err)
	}
	if _, err := part.Write(in.Data); err != nil {
		return nil, "", fmt.Errorf("encode file part: %w", err)
	}
	if c.cfg.Strategy != "" {
		if err := w.WriteField("strategy", c.cfg.Strategy); err != nil {
			return nil, "", fmt.Errorf("encode strategy: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
