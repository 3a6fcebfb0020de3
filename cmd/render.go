package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/mattsolo1/grove-gallery/pkg/engine"
	"github.com/mattsolo1/grove-gallery/pkg/session"
)

// configureOutput drops colour when stdout is not a terminal or when asked.
func configureOutput(disable bool) {
	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	if disable || !tty {
		lipgloss.SetColorProfile(termenv.Ascii)
		color.NoColor = true
	}
}

var bannerStyle = lipgloss.NewStyle().Bold(true).Border(lipgloss.DoubleBorder()).Padding(0, 2)

var (
	roastStyle = lipgloss.NewStyle().Italic(true).Faint(true)
	textStyle  = lipgloss.NewStyle().PaddingLeft(3)
)

// terminalSink prints the show to a writer.
type terminalSink struct {
	mu sync.Mutex
	w  io.Writer
}

func newTerminalSink(w io.Writer) *terminalSink {
	return &terminalSink{w: w}
}

func (t *terminalSink) NowShowing(n session.NowShowing) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, renderNowShowing(n))
}

func (t *terminalSink) Comment(ev engine.CommentEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, renderComment(ev))
}

func renderNowShowing(n session.NowShowing) string {
	lines := []string{"NOW SHOWING", n.Title}
	if len(n.CharacterNames) > 0 {
		lines = append(lines, "starring "+strings.Join(n.CharacterNames, ", "))
	}
	out := bannerStyle.Render(strings.Join(lines, "\n"))
	if n.Roast != "" {
		out += "\n" + roastStyle.Render("  \""+n.Roast+"\"")
	}
	return out
}

func renderComment(ev engine.CommentEvent) string {
	name := lipgloss.NewStyle().Bold(true)
	if ev.Color != "" {
		name = name.Foreground(lipgloss.Color(ev.Color))
	}
	header := fmt.Sprintf("%s %s", ev.Avatar, name.Render(ev.CharacterName))
	return header + "\n" + textStyle.Render(ev.Text)
}

func printSuccess(w io.Writer, format string, a ...interface{}) {
	color.New(color.FgGreen).Fprintf(w, "✓ "+format+"\n", a...)
}

func printWarning(w io.Writer, format string, a ...interface{}) {
	color.New(color.FgYellow).Fprintf(w, "⚠️  "+format+"\n", a...)
}
