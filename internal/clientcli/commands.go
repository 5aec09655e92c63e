package clientcli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	vault "eddisonso.com/file-vault/pkg/vault-sdk"
)

func getContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 120*time.Second)
}

// transferContext has no deadline; the client's header timeout still
// catches a server that never answers.
func transferContext() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}

func (a *App) secret(prompt string) (string, error) {
	if a.readSecret == nil {
		return "", fmt.Errorf("no terminal available to read a password")
	}
	return a.readSecret(prompt)
}

func (a *App) cmdRegister(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: register <user> <email>")
	}
	password, err := a.secret("Password: ")
	if err != nil {
		return err
	}

	ctx, cancel := getContext()
	defer cancel()

	msg, err := a.client.Register(ctx, vault.RegisterRequest{
		Username: args[0],
		Email:    args[1],
		Password: password,
	})
	if err != nil {
		return err
	}
	if msg.Message != "" {
		fmt.Fprintln(a.out, msg.Message)
	}
	fmt.Fprintf(a.out, "Account %s created. Use 'login %s' to sign in.\n", args[0], args[0])
	return nil
}

func (a *App) cmdLogin(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: login <user>")
	}
	password, err := a.secret("Password: ")
	if err != nil {
		return err
	}

	ctx, cancel := getContext()
	defer cancel()

	view, err := a.client.Login(ctx, args[0], password)
	if errors.Is(err, vault.ErrUnauthorized) {
		return fmt.Errorf("login failed: invalid username or password")
	}
	if err != nil {
		return err
	}
	a.listing.Replace(nil)
	a.printSession(view)
	return nil
}

func (a *App) cmdLogout(args []string) error {
	ctx, cancel := getContext()
	defer cancel()

	_, err := a.client.Logout(ctx)
	a.listing.Replace(nil)
	if err != nil {
		return fmt.Errorf("logged out, but the stored session could not be removed: %w", err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) cmdWhoami(args []string) error {
	session := a.client.Session()
	view := session.Current()
	claims := session.Claims()

	if view == vault.ViewAnonymous {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}

	username := "-"
	if claims != nil && claims.Username != "" {
		username = claims.Username
	}
	fmt.Fprintf(a.out, "User:    %s\n", username)
	fmt.Fprintf(a.out, "Role:    %s\n", claims.EffectiveRole())
	fmt.Fprintf(a.out, "View:    %s\n", view)
	if claims != nil && claims.ExpiresAt != nil {
		expires := claims.ExpiresAt.Time
		fmt.Fprintf(a.out, "Expires: %s\n", formatDate(expires))
	}
	return nil
}

func (a *App) cmdPing(args []string) error {
	ctx, cancel := getContext()
	defer cancel()

	msg, err := a.client.Protected(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg.Message)
	return nil
}

func (a *App) cmdLs(args []string) error {
	ctx, cancel := getContext()
	defer cancel()

	files, err := a.client.ListFiles(ctx)
	if err != nil {
		return err
	}
	a.listing.Replace(files)
	a.showFiles(files)
	return nil
}

func (a *App) cmdSearch(args []string) error {
	ctx, cancel := getContext()
	defer cancel()

	files, err := a.client.SearchFiles(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	a.listing.Replace(files)
	a.showFiles(files)
	return nil
}

func (a *App) cmdFilter(args []string) error {
	a.showFiles(a.listing.Filter(strings.Join(args, " ")))
	return nil
}

func (a *App) cmdUpload(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: upload <path>...")
	}

	files, closeFiles, err := vault.OpenUploadFiles(a.fs, args)
	if err != nil {
		return err
	}
	defer closeFiles()

	var totalSize int64
	for _, f := range files {
		totalSize += f.Size
	}

	var progress *TransferProgress
	if totalSize > 0 {
		progress = NewTransferProgress(totalSize, "Uploading")
		for i := range files {
			files[i].Content = &ProgressReader{r: files[i].Content, progress: progress}
		}
		progress.Start()
	}

	ctx, cancel := transferContext()
	defer cancel()

	uploaded, err := a.client.Upload(ctx, files)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		return err
	}

	added := a.listing.MergeUploaded(uploaded)
	fmt.Fprintf(a.out, "Successfully uploaded %d file(s)\n", added)
	if len(uploaded) > 0 {
		renderFileTable(a.out, uploaded)
	}
	return nil
}

func (a *App) cmdDownload(args []string) error {
	id, err := requireID("download <id> [dest]", args)
	if err != nil {
		return err
	}

	ctx, cancel := transferContext()
	defer cancel()

	dl, err := a.client.Download(ctx, id)
	if err != nil {
		return err
	}
	defer dl.Body.Close()

	// An explicit destination may be overwritten; a name taken from the
	// server or the listing may not.
	dest := ""
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if len(args) > 1 {
		dest = args[1]
	} else {
		dest = a.downloadName(id, dl.Filename)
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	out, err := a.fs.OpenFile(dest, flags, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%s already exists; pass a destination to overwrite it", dest)
	}
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	var w io.Writer = out
	var progress *TransferProgress
	if dl.Size > 0 {
		progress = NewTransferProgress(dl.Size, "Downloading")
		progress.Start()
		w = &ProgressWriter{w: out, progress: progress}
	}

	n, err := io.Copy(w, dl.Body)
	if progress != nil {
		progress.Finish()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		a.fs.Remove(dest)
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Fprintf(a.out, "Saved %s (%s)\n", dest, formatBytes(n))
	return nil
}

// downloadName never trusts a server supplied path component.
func (a *App) downloadName(id int64, served string) string {
	if served != "" {
		return filepath.Base(served)
	}
	if f, ok := a.listing.Get(id); ok && f.Filename != "" {
		return filepath.Base(f.Filename)
	}
	return fmt.Sprintf("file-%d", id)
}

func (a *App) cmdShare(args []string) error {
	id, err := requireID("share <id>", args)
	if err != nil {
		return err
	}

	ctx, cancel := getContext()
	defer cancel()

	link, err := a.client.ShareFile(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Share link: %s\n", link.URL)
	return nil
}

func (a *App) cmdRm(args []string) error {
	id, err := requireID("rm <id>", args)
	if err != nil {
		return err
	}

	ctx, cancel := getContext()
	defer cancel()

	if err := a.client.DeleteFile(ctx, id); err != nil {
		return err
	}
	a.listing.Remove(id)
	fmt.Fprintf(a.out, "Deleted file %d\n", id)
	return nil
}

func (a *App) cmdAdminLs(args []string) error {
	if a.client.Session().Current() != vault.ViewAdminDashboard {
		fmt.Fprintln(a.out, "Note: this session does not carry the admin role; the server decides.")
	}

	ctx, cancel := getContext()
	defer cancel()

	files, err := a.client.AdminListFiles(ctx)
	if err != nil {
		return err
	}
	a.listing.Replace(files)
	a.showFiles(files)
	return nil
}

func (a *App) showFiles(files []vault.FileMetadata) {
	if len(files) == 0 {
		fmt.Fprintln(a.out, "No files found")
		return
	}
	renderFileTable(a.out, files)
}
