package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// deferredBuffer accumulates log output in memory until Flush writes
// it to the log file. Used at the default verbosity so a quiet run
// still leaves a full trace behind without streaming it to the console.
type deferredBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (d *deferredBuffer) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Write(p)
}

func (d *deferredBuffer) drainTo(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.buf.WriteTo(w)
	return err
}

var buffer *deferredBuffer

// SetupLogger configures the global logger based on verbosity level.
// At verbosity 0 events are buffered in memory and written to the log
// file only when Flush is called; -v and above stream to the console
// (and the log file) immediately.
func SetupLogger(verbosity int) {
	switch verbosity {
	case 0:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case 1:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case 2:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	if verbosity == 0 {
		buffer = &deferredBuffer{}
		log.Logger = zerolog.New(buffer).With().Timestamp().Logger()
		return
	}

	buffer = nil
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}

	writers := []io.Writer{consoleWriter}
	if file, err := openLogFile(); err == nil {
		writers = append(writers, file)
	}

	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	log.Debug().Int("verbosity", verbosity).Msg("Logger initialized")
}

// Flush writes any buffered log output to the log file. A no-op when
// logging streams immediately.
func Flush() {
	if buffer == nil {
		return
	}
	file, err := openLogFile()
	if err != nil {
		return
	}
	defer func() { _ = file.Close() }()
	_ = buffer.drainTo(file)
}

// GetLogger returns a contextualized logger with the given name
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// LogFilePath returns the path of the run log under the XDG state dir.
func LogFilePath() string {
	return filepath.Join(xdg.StateHome, "tether", "tether.log")
}

// openLogFile creates the log file and its parent directories and
// opens it in append mode.
func openLogFile() (*os.File, error) {
	logPath := LogFilePath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}
