package present

import (
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"
)

// DefaultCopyAckDelay is how long the "copied" acknowledgement stays up
const DefaultCopyAckDelay = 2 * time.Second

// Clipboard receives copied text
type Clipboard interface {
	WriteAll(text string) error
}

// ClipboardFunc adapts a function to Clipboard
type ClipboardFunc func(text string) error

func (f ClipboardFunc) WriteAll(text string) error { return f(text) }

// SystemClipboard writes to the operating system clipboard
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// CopyAck tracks the transient acknowledgement shown after a copy.
// Each Copy restarts the revert timer.
type CopyAck struct {
	delay time.Duration

	mu     sync.Mutex
	copied bool
	timer  *time.Timer
	seq    uint64
}

// NewCopyAck returns an acknowledgement that reverts after delay
func NewCopyAck(delay time.Duration) *CopyAck {
	if delay <= 0 {
		delay = DefaultCopyAckDelay
	}
	return &CopyAck{delay: delay}
}

// Copy writes text to cb and raises the acknowledgement
func (a *CopyAck) Copy(cb Clipboard, text string) error {
	if err := cb.WriteAll(text); err != nil {
		return fmt.Errorf("failed to copy report: %w", err)
	}
	a.Acknowledge()
	return nil
}

// Acknowledge raises the acknowledgement for a copy made elsewhere, such as
// the browser writing the report to its own clipboard.
func (a *CopyAck) Acknowledge() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
	}
	a.copied = true
	a.seq++
	seq := a.seq
	a.timer = time.AfterFunc(a.delay, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		// a timer that already fired when Stop was called must not clear a newer copy
		if a.seq == seq {
			a.copied = false
		}
	})
}

// Copied reports whether the acknowledgement is showing
func (a *CopyAck) Copied() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.copied
}

// Stop cancels any pending revert and clears the acknowledgement
func (a *CopyAck) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.seq++
	a.copied = false
}
