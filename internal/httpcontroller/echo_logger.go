package httpcontroller

import (
	"fmt"
	"io"
	"sync/atomic"

	echo_log "github.com/labstack/gommon/log"

	"github.com/tphakala/comingsoon/internal/logger"
)

// EchoLoggerAdapter routes Echo's own log output (startup errors, TLS
// handshake failures, middleware warnings) into the central logger.
type EchoLoggerAdapter struct {
	log   logger.Logger
	level atomic.Uint32
}

// NewEchoLoggerAdapter creates an adapter. debug lowers Echo's level to DEBUG.
func NewEchoLoggerAdapter(l logger.Logger, debug bool) *EchoLoggerAdapter {
	if l == nil {
		l = logger.NewDiscardLogger()
	}
	a := &EchoLoggerAdapter{log: l}
	if debug {
		a.SetLevel(echo_log.DEBUG)
	} else {
		a.SetLevel(echo_log.INFO)
	}
	return a
}

func (a *EchoLoggerAdapter) Output() io.Writer { return io.Discard }

// SetOutput is a no-op; output is managed by the central logger.
func (a *EchoLoggerAdapter) SetOutput(_ io.Writer) {}

func (a *EchoLoggerAdapter) Prefix() string { return "" }

func (a *EchoLoggerAdapter) SetPrefix(_ string) {}

func (a *EchoLoggerAdapter) Level() echo_log.Lvl { return echo_log.Lvl(a.level.Load()) }

func (a *EchoLoggerAdapter) SetLevel(v echo_log.Lvl) { a.level.Store(uint32(v)) }

func (a *EchoLoggerAdapter) SetHeader(_ string) {}

// emit forwards msg when lvl passes Echo's level filter.
func (a *EchoLoggerAdapter) emit(lvl echo_log.Lvl, msg string, fields ...logger.Field) {
	if lvl < a.Level() {
		return
	}
	switch lvl {
	case echo_log.DEBUG:
		a.log.Debug(msg, fields...)
	case echo_log.WARN:
		a.log.Warn(msg, fields...)
	case echo_log.ERROR:
		a.log.Error(msg, fields...)
	default:
		a.log.Info(msg, fields...)
	}
}

func (a *EchoLoggerAdapter) Print(i ...any) { a.emit(echo_log.INFO, fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Printf(format string, args ...any) { a.emit(echo_log.INFO, fmt.Sprintf(format, args...)) }
func (a *EchoLoggerAdapter) Printj(j echo_log.JSON) { a.emit(echo_log.INFO, "echo", logger.Any("data", j)) }

func (a *EchoLoggerAdapter) Debug(i ...any) { a.emit(echo_log.DEBUG, fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Debugf(format string, args ...any) { a.emit(echo_log.DEBUG, fmt.Sprintf(format, args...)) }
func (a *EchoLoggerAdapter) Debugj(j echo_log.JSON) { a.emit(echo_log.DEBUG, "echo", logger.Any("data", j)) }

func (a *EchoLoggerAdapter) Info(i ...any) { a.emit(echo_log.INFO, fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Infof(format string, args ...any) { a.emit(echo_log.INFO, fmt.Sprintf(format, args...)) }
func (a *EchoLoggerAdapter) Infoj(j echo_log.JSON) { a.emit(echo_log.INFO, "echo", logger.Any("data", j)) }

func (a *EchoLoggerAdapter) Warn(i ...any) { a.emit(echo_log.WARN, fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Warnf(format string, args ...any) { a.emit(echo_log.WARN, fmt.Sprintf(format, args...)) }
func (a *EchoLoggerAdapter) Warnj(j echo_log.JSON) { a.emit(echo_log.WARN, "echo", logger.Any("data", j)) }

func (a *EchoLoggerAdapter) Error(i ...any) { a.emit(echo_log.ERROR, fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Errorf(format string, args ...any) { a.emit(echo_log.ERROR, fmt.Sprintf(format, args...)) }
func (a *EchoLoggerAdapter) Errorj(j echo_log.JSON) { a.emit(echo_log.ERROR, "echo", logger.Any("data", j)) }

// Fatal variants log and panic; the recover middleware or the serve
// command turns the panic into a shutdown.
func (a *EchoLoggerAdapter) Fatal(i ...any) {
	msg := fmt.Sprint(i...)
	a.log.Error(msg)
	panic("echo fatal error: " + msg)
}

func (a *EchoLoggerAdapter) Fatalf(format string, args ...any) {
	a.Fatal(fmt.Sprintf(format, args...))
}

func (a *EchoLoggerAdapter) Fatalj(j echo_log.JSON) {
	a.Fatal(fmt.Sprintf("%v", j))
}

func (a *EchoLoggerAdapter) Panic(i ...any) {
	msg := fmt.Sprint(i...)
	a.log.Error(msg)
	panic(msg)
}

func (a *EchoLoggerAdapter) Panicf(format string, args ...any) {
	a.Panic(fmt.Sprintf(format, args...))
}

func (a *EchoLoggerAdapter) Panicj(j echo_log.JSON) {
	a.Panic(fmt.Sprintf("%v", j))
}
