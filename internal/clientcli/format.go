package clientcli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	vault "eddisonso.com/file-vault/pkg/vault-sdk"
)

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func renderFileTable(w io.Writer, files []vault.FileMetadata) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tTYPE\tUPLOADER\tUPLOADED\tDOWNLOADS")
	for _, f := range files {
		mimeType := f.MIMEType
		if mimeType == "" {
			mimeType = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
			f.ID,
			f.Filename,
			formatBytes(f.Size),
			mimeType,
			f.Uploader,
			formatDate(f.UploadDate),
			f.DownloadCount,
		)
	}
	tw.Flush()
}
