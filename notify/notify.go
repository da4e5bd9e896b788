package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrPromptUnavailable is returned by Confirm when no prompt can be delivered.
var ErrPromptUnavailable = errors.New("confirmation prompt unavailable")

// Level is the severity of a Message.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is a single fire-and-forget notification.
type Message struct {
	ID    string
	Level Level
	Text  string
	At    time.Time
}

// Prompt is a pending yes/no confirmation.
type Prompt struct {
	ID      string
	Title   string
	Message string

	result chan bool
	once   sync.Once
}

func newPrompt(title, message string) *Prompt {
	return &Prompt{
		ID:      uuid.NewString(),
		Title:   title,
		Message: message,
		result:  make(chan bool, 1),
	}
}

// Resolve answers the prompt. Only the first answer counts.
func (p *Prompt) Resolve(confirmed bool) {
	p.once.Do(func() {
		p.result <- confirmed
	})
}

func (p *Prompt) wait(ctx context.Context) (bool, error) {
	select {
	case v := <-p.result:
		return v, nil
	case <-ctx.Done():
		p.Resolve(false)
		return false, ctx.Err()
	}
}

// Nop discards messages and declines confirmations.
type Nop struct{}

func (Nop) Info(string)    {}
func (Nop) Success(string) {}
func (Nop) Warning(string) {}
func (Nop) Error(string)   {}

// Confirm always declines.
func (Nop) Confirm(context.Context, string, string) (bool, error) { return false, nil }
