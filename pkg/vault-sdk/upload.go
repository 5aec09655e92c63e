package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// UploadField is the multipart field every file of a batch is sent under.
	UploadField = "files"
	// UploaderHeader carries the uploader's decoded username.
	UploaderHeader = "Uploader"
	// UnknownUploader is sent when no claims can be decoded.
	UnknownUploader = "unknown"

	uploadPath = "/upload"
)

// UploadPipeline encodes a batch of files into one multipart request to the
// file service.
type UploadPipeline struct {
	gateway  *Gateway
	store    TokenStore
	fileAddr string
	logger   *slog.Logger
}

// NewUploadPipeline returns a pipeline that uploads through gateway.
func NewUploadPipeline(gateway *Gateway, store TokenStore, fileAddr string, logger *slog.Logger) *UploadPipeline {
	if logger == nil {
		logger = discardLogger()
	}
	return &UploadPipeline{
		gateway:  gateway,
		store:    store,
		fileAddr: normalizeAddr(fileAddr),
		logger:   logger.With(slog.String("component", "upload")),
	}
}

// Upload sends files as a single batch and returns the stored metadata.
// Every failure is an *UploadFailedError; on a 401 it also unwraps to
// ErrUnauthorized and the credential has been cleared.
func (p *UploadPipeline) Upload(ctx context.Context, files []UploadFile) ([]FileMetadata, error) {
	if len(files) == 0 {
		return nil, &UploadFailedError{Message: ErrNoFiles.Error(), Err: ErrNoFiles}
	}

	uploader := p.uploader(ctx)

	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeParts(mw, files))
	}()

	p.logger.Debug("uploading batch",
		slog.Int("files", len(files)),
		slog.String("uploader", uploader),
	)

	resp, err := p.gateway.sendTo(ctx, p.fileAddr, Request{
		Method: http.MethodPost,
		Path:   uploadPath,
		Body:   pr,
		Header: http.Header{
			"Content-Type": {mw.FormDataContentType()},
			UploaderHeader: {uploader},
		},
	})
	if err != nil {
		return nil, uploadError(err)
	}

	var uploaded []FileMetadata
	if err := decodeJSON(resp, &uploaded); err != nil {
		return nil, err
	}
	if uploaded == nil {
		uploaded = []FileMetadata{}
	}
	return uploaded, nil
}

// uploader never fails: identity is best-effort metadata, the bearer
// credential carries authorization.
func (p *UploadPipeline) uploader(ctx context.Context) string {
	token, ok, err := p.store.Get(ctx)
	if err != nil {
		p.logger.Warn("read credential for uploader", slog.String("error", err.Error()))
		return UnknownUploader
	}
	if !ok {
		return UnknownUploader
	}
	claims := DecodeClaims(token)
	if claims == nil || claims.Username == "" {
		return UnknownUploader
	}
	return claims.Username
}

func uploadError(err error) error {
	if errors.Is(err, ErrUnauthorized) {
		return &UploadFailedError{Message: err.Error(), Err: err}
	}
	var rf *RequestFailedError
	if errors.As(err, &rf) {
		return &UploadFailedError{Message: rf.Message, Err: rf}
	}
	return &UploadFailedError{Message: err.Error(), Err: err}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeParts(mw *multipart.Writer, files []UploadFile) error {
	for _, f := range files {
		name := filepath.Base(f.Name)
		contentType := mime.TypeByExtension(filepath.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			UploadField, quoteEscaper.Replace(name)))
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
	}
	return mw.Close()
}

// OpenUploadFiles opens local paths on fsys for an upload batch. The
// returned func closes every opened file.
func OpenUploadFiles(fsys afero.Fs, paths []string) ([]UploadFile, func(), error) {
	var opened []afero.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	files := make([]UploadFile, 0, len(paths))
	for _, path := range paths {
		f, err := fsys.Open(path)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("open %s: %w", path, err)
		}
		opened = append(opened, f)

		info, err := f.Stat()
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			closeAll()
			return nil, func() {}, fmt.Errorf("%s is a directory", path)
		}
		files = append(files, UploadFile{Name: path, Content: f, Size: info.Size()})
	}
	return files, closeAll, nil
}
