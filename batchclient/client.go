package batchclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client drives the upload endpoint over HTTP. It is deliberately
// self-contained: the batch tool talks to the server the way any external
// caller would.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// UploadOutcome mirrors the server's upload response shape.
type UploadOutcome struct {
	StorageKey string             `json:"storage_key"`
	Location   string             `json:"location"`
	Results    []IdentifierStatus `json:"results"`
	Failed     int                `json:"failed"`
}

type IdentifierStatus struct {
	ArticleID string `json:"article_id"`
	ImageID   string `json:"image_id,omitempty"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Upload posts one file with its identifiers as a multipart request.
// Server-side errors come back with the server's message verbatim.
func (c *Client) Upload(ctx context.Context, filePath string, articleIDs []string, runID string) (*UploadOutcome, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("article_ids", strings.Join(articleIDs, ",")); err != nil {
		return nil, fmt.Errorf("failed to write identifiers field: %w", err)
	}
	if runID != "" {
		if err := writer.WriteField("batch_run_id", runID); err != nil {
			return nil, fmt.Errorf("failed to write run id field: %w", err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(filePath)))
	header.Set("Content-Type", contentTypeForFile(filePath))

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to write file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var serverErr errorBody
		if json.Unmarshal(respBody, &serverErr) == nil && serverErr.Error != "" {
			return nil, fmt.Errorf("server rejected upload: %s", serverErr.Error)
		}
		return nil, fmt.Errorf("server rejected upload: status %d", resp.StatusCode)
	}

	var outcome UploadOutcome
	if err := json.Unmarshal(respBody, &outcome); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &outcome, nil
}

func contentTypeForFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "image/jpeg"
	}
}
