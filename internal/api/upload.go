// Package api – cover image upload.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// UploadFile uploads the file at path as the "file" part of a multipart
// POST /upload-file request and returns the URL assigned by the server.
//
// The source is first copied into a temporary file so that a partially
// readable source (a pipe, a file being written) cannot corrupt the request
// mid-flight. A 2xx response whose "url" field is empty is an error
// (ErrMissingUploadURL), never an empty success.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	tmp, err := stageFile(path)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	src, err := os.Open(tmp)
	if err != nil {
		return "", fmt.Errorf("open staged file: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		src.Close()
		return "", fmt.Errorf("read staged file: %w", err)
	}
	src.Close()
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload-file", &buf)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("path", "/upload-file").
		Str("file", filepath.Base(path)).
		Int("status", resp.StatusCode).
		Msg("upload")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", newStatusError(resp)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.URL == "" {
		return "", ErrMissingUploadURL
	}
	return out.URL, nil
}

// stageFile copies the source into a temporary file and returns its path.
// The caller removes the file when done.
func stageFile(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "estante-upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("stage %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("stage %s: %w", path, err)
	}
	return tmp.Name(), nil
}
