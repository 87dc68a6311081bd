// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
)

// ErrUploadRefused is returned when the server rejects an uploaded file.
var ErrUploadRefused = errors.New("téléversement refusé")

// ProgressFunc receives the upload progress as a fraction in [0, 1].
type ProgressFunc func(fraction float64)

// UploadResult identifies the stored file.
type UploadResult struct {
	FileID int64
}

// UploadFile sends a document to the active project's store. The file goes
// up as the multipart field "fichier"; progress, when non-nil, is invoked
// as bytes leave the client. Cancel via the context.
func (c *Client) UploadFile(ctx context.Context, path string, progress ProgressFunc) (*UploadResult, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ouverture du fichier: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("lecture du fichier: %w", err)
	}

	// Stream the multipart body through a pipe so large documents never
	// sit in memory whole.
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile("fichier", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		src := io.Reader(file)
		if progress != nil {
			src = &progressReader{r: file, total: info.Size(), report: progress}
		}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		return nil, fmt.Errorf("création de la requête: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuthHeader(req)

	var resp struct {
		ID      int64  `json:"id"`
		FileID  int64  `json:"file_id"`
		Message string `json:"message"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	id := resp.ID
	if id == 0 {
		id = resp.FileID
	}
	if id == 0 {
		if resp.Message != "" {
			return nil, fmt.Errorf("%w : %s", ErrUploadRefused, resp.Message)
		}
		return nil, ErrUploadRefused
	}

	if progress != nil {
		progress(1)
	}
	return &UploadResult{FileID: id}, nil
}

// progressReader reports the fraction of a known total as it is read.
type progressReader struct {
	r      io.Reader
	total  int64
	read   atomic.Int64
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		read := p.read.Add(int64(n))
		p.report(float64(read) / float64(p.total))
	}
	return n, err
}
