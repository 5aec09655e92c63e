package clientcli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// TransferProgress renders an upload or download progress line.
type TransferProgress struct {
	out        io.Writer
	total      int64 // 0 when the size is unknown
	current    int64
	startTime  time.Time
	operation  string
	done       chan struct{}
	stopped    chan struct{}
	mu         sync.Mutex
	isTerminal bool
	termWidth  int
}

// NewTransferProgress creates a tracker that draws on stderr.
func NewTransferProgress(total int64, operation string) *TransferProgress {
	width := 40
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))
	if isTerminal {
		if w, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	return newTransferProgress(os.Stderr, total, operation, isTerminal, width)
}

func newTransferProgress(out io.Writer, total int64, operation string, isTerminal bool, width int) *TransferProgress {
	if total < 0 {
		total = 0
	}
	return &TransferProgress{
		out:        out,
		total:      total,
		operation:  operation,
		startTime:  time.Now(),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		isTerminal: isTerminal,
		termWidth:  width,
	}
}

// Add increments the current progress.
func (p *TransferProgress) Add(delta int64) {
	p.mu.Lock()
	p.current += delta
	p.mu.Unlock()
}

// Start begins rendering the progress bar.
func (p *TransferProgress) Start() {
	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-p.done:
				p.draw(true)
				return
			case <-ticker.C:
				p.draw(false)
			}
		}
	}()
}

// Finish stops the progress bar after its final render.
func (p *TransferProgress) Finish() {
	close(p.done)
	<-p.stopped
}

func (p *TransferProgress) draw(final bool) {
	p.mu.Lock()
	current := p.current
	p.mu.Unlock()

	elapsed := time.Since(p.startTime)
	if p.isTerminal {
		fmt.Fprint(p.out, "\r"+p.line(current, elapsed, final))
		if final {
			fmt.Fprintln(p.out)
		}
	} else if final {
		fmt.Fprintf(p.out, "%s: %s (%s/s)\n", p.operation, formatBytes(current), formatBytes(rate(current, elapsed)))
	}
}

func (p *TransferProgress) line(current int64, elapsed time.Duration, final bool) string {
	speed := rate(current, elapsed)
	speedStr := formatBytes(speed) + "/s"

	if p.total == 0 {
		line := fmt.Sprintf("%s %s %s", p.operation, formatBytes(current), speedStr)
		return padTo(line, p.termWidth)
	}

	percent := float64(current) / float64(p.total) * 100
	if percent > 100 {
		percent = 100
	}

	barWidth := 30
	if p.termWidth < 80 {
		barWidth = 20
	}
	filled := int(percent / 100 * float64(barWidth))

	bar := strings.Repeat("=", filled)
	if filled < barWidth && !final {
		bar += ">" + strings.Repeat(" ", barWidth-filled-1)
	} else if filled < barWidth {
		bar += strings.Repeat(" ", barWidth-filled)
	}

	line := fmt.Sprintf("%s [%s] %5.1f%% %s/%s %s",
		p.operation, bar, percent, formatBytes(current), formatBytes(p.total), speedStr)
	if speed > 0 && current < p.total && !final {
		remaining := time.Duration(float64(p.total-current)/float64(speed)) * time.Second
		line += " ETA " + formatDuration(remaining)
	}
	return padTo(line, p.termWidth)
}

func rate(n int64, elapsed time.Duration) int64 {
	secs := elapsed.Seconds()
	if secs < 0.001 {
		secs = 0.001
	}
	return int64(float64(n) / secs)
}

// padTo clears leftovers of a previous longer line.
func padTo(line string, width int) string {
	if len(line) < width {
		return line + strings.Repeat(" ", width-len(line))
	}
	return line
}

// ProgressWriter wraps a writer and updates progress.
type ProgressWriter struct {
	w        io.Writer
	progress *TransferProgress
}

func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	if n > 0 {
		pw.progress.Add(int64(n))
	}
	return n, err
}

// ProgressReader wraps a reader and updates progress.
type ProgressReader struct {
	r        io.Reader
	progress *TransferProgress
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.progress.Add(int64(n))
	}
	return n, err
}
