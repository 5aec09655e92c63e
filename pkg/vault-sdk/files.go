package vault

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ListFiles returns every file visible to the current credential.
func (c *Client) ListFiles(ctx context.Context) ([]FileMetadata, error) {
	return c.getListing(ctx, "/files")
}

// SearchFiles returns files whose name matches filename. A blank filename
// lists everything.
func (c *Client) SearchFiles(ctx context.Context, filename string) ([]FileMetadata, error) {
	if strings.TrimSpace(filename) == "" {
		return c.ListFiles(ctx)
	}
	query := url.Values{"filename": {filename}}
	return c.getListing(ctx, "/files/search?"+query.Encode())
}

// AdminListFiles returns every file in the system. The backend requires the
// admin role; the client does not check it.
func (c *Client) AdminListFiles(ctx context.Context) ([]FileMetadata, error) {
	return c.getListing(ctx, "/admin/files")
}

// Upload sends files as one batch. See UploadPipeline.Upload.
func (c *Client) Upload(ctx context.Context, files []UploadFile) ([]FileMetadata, error) {
	return c.uploads.Upload(ctx, files)
}

// Download opens a streaming download of file id. Callers must close Body.
func (c *Client) Download(ctx context.Context, id int64) (*Download, error) {
	resp, err := c.gateway.Send(ctx, Request{Method: http.MethodGet, Path: filePath(id, "download")})
	if err != nil {
		return nil, err
	}
	return &Download{
		Body:        resp.Body,
		Filename:    attachmentName(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}, nil
}

// DownloadTo streams file id into w and returns the bytes written.
func (c *Client) DownloadTo(ctx context.Context, id int64, w io.Writer) (int64, error) {
	dl, err := c.Download(ctx, id)
	if err != nil {
		return 0, err
	}
	defer dl.Body.Close()
	return io.Copy(w, dl.Body)
}

// DeleteFile removes file id on the server. Callers update their local
// Listing with Listing.Remove.
func (c *Client) DeleteFile(ctx context.Context, id int64) error {
	resp, err := c.gateway.Send(ctx, Request{Method: http.MethodDelete, Path: filePath(id, "")})
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// ShareFile asks the file service for a public link to file id.
func (c *Client) ShareFile(ctx context.Context, id int64) (*ShareLink, error) {
	resp, err := c.gateway.Send(ctx, Request{Method: http.MethodPost, Path: filePath(id, "share")})
	if err != nil {
		return nil, err
	}
	var link ShareLink
	if err := decodeJSON(resp, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *Client) getListing(ctx context.Context, path string) ([]FileMetadata, error) {
	resp, err := c.gateway.Send(ctx, Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}
	var files []FileMetadata
	if err := decodeJSON(resp, &files); err != nil {
		return nil, err
	}
	if files == nil {
		files = []FileMetadata{}
	}
	return files, nil
}

func filePath(id int64, action string) string {
	p := "/files/" + strconv.FormatInt(id, 10)
	if action != "" {
		p += "/" + action
	}
	return p
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// ParseFileID parses a file id as typed by a user.
func ParseFileID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid file id %q", s)
	}
	return id, nil
}
