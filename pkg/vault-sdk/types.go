package vault

import (
	"io"
	"time"
)

// Credential is the opaque bearer token issued by the auth service.
// The empty credential means no session.
type Credential string

// FileMetadata describes one stored file as reported by the file service.
type FileMetadata struct {
	ID             int64     `json:"id"`
	Filename       string    `json:"filename"`
	Uploader       string    `json:"uploader"`
	Size           int64     `json:"size"`
	MIMEType       string    `json:"mime_type"`
	UploadDate     time.Time `json:"upload_date"`
	DownloadCount  int64     `json:"download_count"`
	ContentHash    string    `json:"content_hash,omitempty"`
	ReferenceCount int64     `json:"reference_count,omitempty"`
}

// ShareLink is a public link produced by a share request. It is not cached.
type ShareLink struct {
	URL string `json:"url"`
}

// Message is the generic `{"message": ...}` body returned by the auth service.
type Message struct {
	Message string `json:"message"`
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful POST /login.
type LoginResponse struct {
	Token string `json:"token"`
}

// UploadFile is one local file in an upload batch.
type UploadFile struct {
	Name    string
	Content io.Reader
	Size    int64
}

// Download is a streaming file download. Callers must close Body.
type Download struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
	Size        int64
}
