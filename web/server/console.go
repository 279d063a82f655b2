package server

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"
)

// Console message levels
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// ConsoleMessage is one line of a render's console. Seq increases by one per
// message, so a client can tell when lines were dropped.
type ConsoleMessage struct {
	Seq       int64     `json:"seq"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
}

// WebLogger mirrors a render's log lines to the server log and to a console
// channel. It never blocks: messages that do not fit are counted and dropped.
type WebLogger struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
	seq         atomic.Int64
	dropped     atomic.Int64
}

// NewWebLogger creates a logger for one render
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage) *WebLogger {
	return &WebLogger{
		renderID:    renderID,
		consoleChan: consoleChan,
	}
}

// Printf implements core.Logger at info level
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	wl.send(LevelInfo, fmt.Sprintf(format, args...))
}

// Warnf logs at warning level
func (wl *WebLogger) Warnf(format string, args ...interface{}) {
	wl.send(LevelWarning, fmt.Sprintf(format, args...))
}

// Errorf logs at error level
func (wl *WebLogger) Errorf(format string, args ...interface{}) {
	wl.send(LevelError, fmt.Sprintf(format, args...))
}

// Dropped returns how many messages did not fit in the console channel
func (wl *WebLogger) Dropped() int64 {
	return wl.dropped.Load()
}

func (wl *WebLogger) send(level, message string) {
	log.Printf("[%s] %s: %s", wl.renderID, level, strings.TrimRight(message, "\n"))

	seq := wl.seq.Add(1)
	if wl.consoleChan == nil {
		return
	}
	select {
	case wl.consoleChan <- ConsoleMessage{
		Seq:       seq,
		Message:   message,
		Timestamp: time.Now(),
		Level:     level,
	}:
	default:
		wl.dropped.Add(1)
	}
}
