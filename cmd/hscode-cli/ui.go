// Package main provides UI utilities for the classification CLI.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// UI renders human-facing output. In JSON mode every method is a no-op, so
// command code can call it unconditionally.
type UI struct {
	progress *mpb.Progress
	noColor  bool
	jsonMode bool
}

// NewUI creates a new UI instance.
func NewUI(jsonMode, noColor bool) *UI {
	var progress *mpb.Progress
	if !jsonMode {
		progress = mpb.New(mpb.WithWidth(64))
	}
	return &UI{
		progress: progress,
		noColor:  noColor,
		jsonMode: jsonMode,
	}
}

// Close flushes pending progress output. When output is piped the bars never
// render, so shutdown skips the wait that would otherwise hang.
func (ui *UI) Close() {
	if ui.progress == nil {
		return
	}
	if IsTerminal() {
		ui.progress.Wait()
	} else {
		ui.progress.Shutdown()
	}
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...interface{}) {
	ui.message(color.FgGreen, "✓", format, args...)
}

// Error prints an error message.
func (ui *UI) Error(format string, args ...interface{}) {
	ui.message(color.FgRed, "✗", format, args...)
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...interface{}) {
	ui.message(color.FgYellow, "⚠", format, args...)
}

// Info prints an info message.
func (ui *UI) Info(format string, args ...interface{}) {
	ui.message(color.FgCyan, "ℹ", format, args...)
}

func (ui *UI) message(c color.Attribute, marker, format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	text := fmt.Sprintf(format, args...)
	if ui.noColor {
		fmt.Printf("%s %s\n", marker, text)
		return
	}
	color.New(c).Printf("%s %s\n", marker, text)
}

// Spinner adds an indeterminate spinner-bar. Complete it with
// bar.SetTotal(1, true) once the work finishes, in error paths too, or Close
// will wait forever.
func (ui *UI) Spinner(name string) *mpb.Bar {
	if ui.progress == nil {
		return nil
	}
	return ui.progress.AddBar(1,
		mpb.BarFillerOnComplete("✓"),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DSyncSpaceR}),
			decor.Spinner([]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}, decor.WC{W: 1}),
		),
		mpb.AppendDecorators(
			decor.Elapsed(decor.ET_STYLE_GO, decor.WC{W: 12}),
		),
	)
}

// Table prints rows with padded columns and an underlined header.
func (ui *UI) Table(headers []string, rows [][]string) {
	if ui.jsonMode || len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = utf8.RuneCountInString(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && utf8.RuneCountInString(cell) > widths[i] {
				widths[i] = utf8.RuneCountInString(cell)
			}
		}
	}

	var b strings.Builder
	for i, header := range headers {
		pad(&b, header, widths[i], i == len(headers)-1)
	}
	header := b.String()

	if ui.noColor {
		fmt.Println(header)
	} else {
		color.New(color.FgCyan, color.Bold).Println(header)
	}
	fmt.Println(strings.Repeat("─", utf8.RuneCountInString(header)))

	for _, row := range rows {
		b.Reset()
		for i, cell := range row {
			if i < len(widths) {
				pad(&b, cell, widths[i], i == len(row)-1)
			}
		}
		fmt.Println(b.String())
	}
}

func pad(b *strings.Builder, cell string, width int, last bool) {
	b.WriteString(cell)
	if !last {
		b.WriteString(strings.Repeat(" ", width-utf8.RuneCountInString(cell)+2))
	}
}

// Section prints a section header.
func (ui *UI) Section(title string) {
	if ui.jsonMode {
		return
	}
	fmt.Println()
	if ui.noColor {
		fmt.Println(title)
	} else {
		color.New(color.FgMagenta, color.Bold).Println(title)
	}
}

// KeyValue prints an indented key-value pair.
func (ui *UI) KeyValue(key string, value interface{}) {
	if ui.jsonMode {
		return
	}
	if ui.noColor {
		fmt.Printf("  %s: %v\n", key, value)
		return
	}
	color.New(color.FgYellow).Printf("  %s: ", key)
	fmt.Printf("%v\n", value)
}

// Newline prints a newline.
func (ui *UI) Newline() {
	if !ui.jsonMode {
		fmt.Println()
	}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

// IsTerminal checks if stdout is a terminal.
func IsTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
