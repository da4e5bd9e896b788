package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// QueueConfig controls Queue buffering.
type QueueConfig struct {
	MessageBuffer int
	PromptBuffer  int
}

// Queue delivers notifications on channels for an external renderer.
//
// Messages are dropped, and counted, when the buffer is full. Confirm blocks until the
// prompt is resolved or ctx ends.
type Queue struct {
	messages  chan Message
	prompts   chan *Prompt
	done      chan struct{}
	dropped   atomic.Uint64
	closeOnce sync.Once
	now       func() time.Time
}

// NewQueue builds a Queue.
func NewQueue(cfg QueueConfig) *Queue {
	if cfg.MessageBuffer <= 0 {
		cfg.MessageBuffer = 16
	}
	if cfg.PromptBuffer <= 0 {
		cfg.PromptBuffer = 1
	}
	return &Queue{
		messages: make(chan Message, cfg.MessageBuffer),
		prompts:  make(chan *Prompt, cfg.PromptBuffer),
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

func (q *Queue) Info(text string)    { q.push(LevelInfo, text) }
func (q *Queue) Success(text string) { q.push(LevelSuccess, text) }
func (q *Queue) Warning(text string) { q.push(LevelWarning, text) }
func (q *Queue) Error(text string)   { q.push(LevelError, text) }

func (q *Queue) push(level Level, text string) {
	select {
	case <-q.done:
		return
	default:
	}
	msg := Message{ID: uuid.NewString(), Level: level, Text: text, At: q.now()}
	select {
	case q.messages <- msg:
	default:
		q.dropped.Add(1)
	}
}

// Confirm publishes a prompt and waits for its resolution.
func (q *Queue) Confirm(ctx context.Context, title, message string) (bool, error) {
	select {
	case <-q.done:
		return false, ErrPromptUnavailable
	default:
	}
	p := newPrompt(title, message)
	select {
	case q.prompts <- p:
	case <-q.done:
		return false, ErrPromptUnavailable
	case <-ctx.Done():
		return false, ctx.Err()
	}
	return p.wait(ctx)
}

// Messages returns the message channel.
func (q *Queue) Messages() <-chan Message { return q.messages }

// Prompts returns the pending prompt channel.
func (q *Queue) Prompts() <-chan *Prompt { return q.prompts }

// Dropped returns the number of messages discarded due to a full buffer.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }

// Close stops accepting messages and prompts. Pending Confirm calls keep waiting on their
// context.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}
