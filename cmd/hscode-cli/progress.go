package main

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
)

// Spinner shows indeterminate activity on stderr, keeping stdout clean for
// piped output.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a spinner with the given message.
func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	return &Spinner{s: s}
}

// Start begins the spinner animation.
func (sp *Spinner) Start() {
	sp.s.Start()
}

// Stop halts the spinner. Safe to call without a preceding Start.
func (sp *Spinner) Stop() {
	sp.s.Stop()
}

// ProgressBar tracks byte progress on stderr. It implements io.Writer so an
// io.TeeReader can feed it while a loader consumes the stream.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a byte-counting progress bar.
func NewProgressBar(total int64, description string) *ProgressBar {
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionOnCompletion(func() {
			os.Stderr.WriteString("\n")
		}),
	)
	return &ProgressBar{bar: bar}
}

// Write advances the bar by len(b) bytes.
func (p *ProgressBar) Write(b []byte) (int, error) {
	return p.bar.Write(b)
}

// Finish fills the bar to completion.
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}
