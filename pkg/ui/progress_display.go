package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"tcphotos/pkg/portal"
	"tcphotos/pkg/scraper"
)

// ProgressDisplay renders run progress on a terminal. It implements
// scraper.Observer.
type ProgressDisplay struct {
	mu         sync.Mutex
	out        io.Writer
	pages      int
	records    int
	photos     int
	done       int
	downloaded int
	errors     int
	current    int64
	startTime  time.Time
	isDebug    bool
	now        func() time.Time
}

var _ scraper.Observer = (*ProgressDisplay)(nil)

// NewProgressDisplay creates a display writing to out. In debug mode every
// photo gets its own line instead of a redrawn progress bar.
func NewProgressDisplay(out io.Writer, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		startTime: time.Now(),
		isDebug:   debug,
		now:       time.Now,
	}
}

// PageFetched reports a crawled page
func (p *ProgressDisplay) PageFetched(page, records int, source string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pages++
	p.records += records
	fmt.Fprintf(p.out, "\r%s page %d • %d records • %s", Magenta("→"), page, records, Dim(source))
	if p.isDebug {
		fmt.Fprintln(p.out)
	}
}

// CrawlFinished reports the crawl totals and sizes the progress bar
func (p *ProgressDisplay) CrawlFinished(total, withPhotos int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.photos = withPhotos
	fmt.Fprintf(p.out, "\n%s %d records across %d pages, %d with photos\n",
		Green("✓"), total, p.pages, withPhotos)
}

// PhotoStarted marks the photo being processed
func (p *ProgressDisplay) PhotoStarted(post portal.Post) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = post.ID
	if !p.isDebug {
		p.printProgress()
	}
}

// PhotoFinished marks a photo as embedded
func (p *ProgressDisplay) PhotoFinished(result *scraper.EmbedResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if result.Downloaded {
		p.downloaded++
	}
	p.current = 0

	if !p.isDebug {
		p.printProgress()
		return
	}

	status := "cached"
	if result.Downloaded {
		status = "downloaded"
	}
	if result.DryRun {
		status += " (dry run)"
	}
	line := fmt.Sprintf("%s %d • %s", Green("✓"), result.PostID, status)
	if desc := truncate(result.Description, 50); desc != "" {
		line += " • " + Dim(desc)
	}
	fmt.Fprintln(p.out, line)
}

// PhotoFailed marks a photo as failed
func (p *ProgressDisplay) PhotoFailed(post portal.Post, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	p.errors++
	p.current = 0

	if !p.isDebug {
		p.printProgress()
	} else {
		fmt.Fprintf(p.out, "%s Failed: %d - %v\n", Red("✗"), post.ID, err)
	}
}

// printProgress redraws the progress line
func (p *ProgressDisplay) printProgress() {
	elapsed := p.now().Sub(p.startTime)

	barWidth := 20
	filled := 0
	if p.photos > 0 {
		filled = min(barWidth, p.done*barWidth/p.photos)
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("[%s] %d/%d • %d new • %s",
		bar,
		p.done,
		p.photos,
		p.downloaded,
		p.calculateETA(elapsed),
	)

	if p.current != 0 {
		line += fmt.Sprintf(" • %d", p.current)
	}

	if p.errors > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d errors", p.errors)))
	}

	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 100), line)
}

// Complete prints the run summary
func (p *ProgressDisplay) Complete(summary *scraper.Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	verb := "Processed"
	if summary.DryRun {
		verb = "Would process"
	}
	fmt.Fprintf(p.out, "\n\n%s %s %d photos from %d records\n",
		Green("✓"),
		verb,
		summary.Processed,
		summary.Records,
	)

	fmt.Fprintf(p.out, "  %s %d downloaded, %d already on disk, %d records without photos\n",
		Dim("•"),
		summary.Downloaded,
		summary.Processed-summary.Downloaded,
		summary.Skipped,
	)
	fmt.Fprintf(p.out, "  %s finished in %s\n", Dim("•"), formatDuration(summary.Duration))

	if len(summary.Failures) > 0 {
		fmt.Fprintf(p.out, "  %s %s\n", Dim("•"), Red(fmt.Sprintf("%d photos failed", len(summary.Failures))))
		for _, f := range summary.Failures {
			fmt.Fprintf(p.out, "    %s %d: %v\n", Red("✗"), f.PostID, f.Err)
		}
	}
}

// calculateETA estimates time remaining
func (p *ProgressDisplay) calculateETA(elapsed time.Duration) string {
	if p.done == 0 || elapsed <= 0 {
		return "calculating..."
	}

	remaining := p.photos - p.done
	perPhoto := elapsed / time.Duration(p.done)
	return formatDuration(perPhoto * time.Duration(remaining))
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
