// Package dlog is the engine's structured logging layer.
//
// It mirrors the six-level scheme of the original C core's
// srd_log_loglevel (NONE/ERR/WARN/INFO/DBG/SPEW), implemented on top of
// github.com/charmbracelet/log instead of a bespoke callback table.
package dlog

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// Level mirrors the loglevel vocabulary of the original core.
type Level int

const (
	LevelNone Level = iota
	LevelErr
	LevelWarn
	LevelInfo
	LevelDbg
	LevelSpew
)

var std = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      time.RFC3339,
})

var current = LevelWarn

// stampFmt renders a compact timestamp for Stamp. The logger itself
// does not use it (its line timestamps use time.RFC3339), and instance
// ids are not derived from it: an instance's id is its decoder class id
// unless SetID overrides it.
var stampFmt = strftime.MustNew("%Y%m%d-%H%M%S")

// Stamp returns the current moment formatted for use in derived
// instance/session identifiers.
func Stamp(t time.Time) string {
	return stampFmt.FormatString(t)
}

// SetLevel adjusts the global verbosity threshold.
func SetLevel(l Level) {
	current = l
	switch {
	case l <= LevelNone:
		std.SetLevel(log.FatalLevel + 1)
	case l == LevelErr:
		std.SetLevel(log.ErrorLevel)
	case l == LevelWarn:
		std.SetLevel(log.WarnLevel)
	case l == LevelInfo:
		std.SetLevel(log.InfoLevel)
	default:
		std.SetLevel(log.DebugLevel)
	}
}

func enabled(l Level) bool { return current >= l }

// Err logs an ATK_LOG_ERR-equivalent message.
func Err(format string, args ...any) {
	std.Errorf(format, args...)
}

// Warn logs an ATK_LOG_WARN-equivalent message.
func Warn(format string, args ...any) {
	std.Warnf(format, args...)
}

// Info logs an ATK_LOG_INFO-equivalent message.
func Info(format string, args ...any) {
	std.Infof(format, args...)
}

// Dbg logs an ATK_LOG_DBG-equivalent message.
func Dbg(format string, args ...any) {
	std.Debugf(format, args...)
}

// Spew logs an ATK_LOG_SPEW-equivalent message: the noisiest tier,
// gated separately so per-sample tracing doesn't cost a format call
// when disabled.
func Spew(format string, args ...any) {
	if !enabled(LevelSpew) {
		return
	}
	std.Debugf("spew: "+format, args...)
}
