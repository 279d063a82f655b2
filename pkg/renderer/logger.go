package renderer

import (
	"log"

	"github.com/df07/go-pathtracer/pkg/core"
)

// DefaultLogger implements core.Logger through the standard logger, which
// writes to stderr and keeps stdout free for image output
type DefaultLogger struct{}

// Printf implements core.Logger
func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}
