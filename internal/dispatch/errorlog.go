package dispatch

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

const ruleWidth = 80

// ErrorLog appends uncaught failures to a text file, one ruled block each.
type ErrorLog struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewErrorLog returns an ErrorLog writing to path.
func NewErrorLog(path string) *ErrorLog {
	return &ErrorLog{path: path, now: time.Now}
}

// Path returns the log file location.
func (l *ErrorLog) Path() string {
	return l.path
}

// Record appends one block. frames may be empty.
func (l *ErrorLog) Record(kind, thrown, message string, frames []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open error log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(l.format(kind, thrown, message, frames)); err != nil {
		return fmt.Errorf("write error log: %w", err)
	}
	return nil
}

func (l *ErrorLog) format(kind, thrown, message string, frames []string) string {
	rule := strings.Repeat("-", ruleWidth)
	var b strings.Builder
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "%s [%s] %s: %s\n\n", l.now().Format(time.DateTime), kind, thrown, message)
	if len(frames) > 0 {
		b.WriteString("Trace:\n")
		b.WriteString(strings.Join(frames, "\n"+rule[:ruleWidth/2]+"\n"))
	}
	b.WriteString("\n" + rule + "\n\n")
	return b.String()
}

// Frames splits a goroutine stack dump into numbered "#k file:line\nfunc"
// frames.
func Frames(stack []byte) []string {
	lines := strings.Split(strings.TrimSpace(string(stack)), "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "goroutine ") {
		lines = lines[1:]
	}
	var frames []string
	for i := 0; i+1 < len(lines); i += 2 {
		fn := strings.TrimSpace(lines[i])
		loc := strings.TrimSpace(lines[i+1])
		if j := strings.LastIndex(loc, " +0x"); j > 0 {
			loc = loc[:j]
		}
		frames = append(frames, fmt.Sprintf("#%d %s\n%s", len(frames), loc, fn))
	}
	return frames
}
