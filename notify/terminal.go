package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Terminal renders messages to a writer and asks confirmations with an interactive form.
type Terminal struct {
	out        io.Writer
	in         io.Reader
	accessible bool
	mu         sync.Mutex
}

// NewTerminal writes to out (stderr when nil).
func NewTerminal(out io.Writer) *Terminal {
	if out == nil {
		out = os.Stderr
	}
	return &Terminal{out: out}
}

// WithAccessibleInput switches confirmations to line-based prompts read from in.
func (t *Terminal) WithAccessibleInput(in io.Reader) *Terminal {
	t.in = in
	t.accessible = true
	return t
}

func (t *Terminal) Info(text string)    { t.print(infoStyle, "info", text) }
func (t *Terminal) Success(text string) { t.print(successStyle, "ok", text) }
func (t *Terminal) Warning(text string) { t.print(warningStyle, "warn", text) }
func (t *Terminal) Error(text string)   { t.print(errorStyle, "error", text) }

func (t *Terminal) print(style lipgloss.Style, label, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "%s %s\n", style.Render("["+label+"]"), text)
}

// Confirm shows a yes/no form. Cancellation of ctx aborts the form and declines.
func (t *Terminal) Confirm(ctx context.Context, title, message string) (bool, error) {
	confirmed := false
	field := huh.NewConfirm().
		Title(title).
		Description(message).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed)

	form := huh.NewForm(huh.NewGroup(field)).WithOutput(t.out)
	if t.accessible {
		form = form.WithAccessible(true)
		if t.in != nil {
			form = form.WithInput(t.in)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := form.RunWithContext(ctx); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}
