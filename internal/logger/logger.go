package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a tagged logger. Messages go to the log file when a log path is
// set and, in dev mode, to the debug view (or stderr without one).
type Logger struct {
	*zap.SugaredLogger
}

var (
	logManager *zap.Logger
	logFile    *os.File
	once       sync.Once
)

func InitLogger(dev bool, logPath string, view io.Writer) {
	once.Do(func() {
		var cores []zapcore.Core

		if logPath != "" {
			timestamp := time.Now().Format("20060102_150405")
			fileName := fmt.Sprintf("pubgqna_log_%s.log", timestamp)
			filePath := filepath.Join(logPath, fileName)

			file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to open log file: %s\n", err)
				os.Exit(1)
			}
			logFile = file
			cores = append(cores, zapcore.NewCore(
				zapcore.NewConsoleEncoder(fileEncoderConfig()),
				zapcore.AddSync(file),
				zapcore.DebugLevel,
			))
		}

		if dev {
			if view != nil {
				cores = append(cores, zapcore.NewCore(
					zapcore.NewConsoleEncoder(viewEncoderConfig()),
					zapcore.AddSync(view),
					zapcore.DebugLevel,
				))
			} else {
				cores = append(cores, zapcore.NewCore(
					zapcore.NewConsoleEncoder(fileEncoderConfig()),
					zapcore.Lock(os.Stderr),
					zapcore.DebugLevel,
				))
			}
		}

		logManager = zap.New(zapcore.NewTee(cores...))
	})
}

// NewLogger returns a logger tagged with tag. Before InitLogger it discards
// everything.
func NewLogger(tag string) *Logger {
	base := logManager
	if base == nil {
		base = zap.NewNop()
	}
	return &Logger{
		SugaredLogger: base.Named(tag).Sugar(),
	}
}

func (l *Logger) Close() {
	_ = l.Sync()
	if logFile != nil {
		logFile.Close()
	}
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + name + "]")
	}
	cfg.CallerKey = ""
	return cfg
}

func viewEncoderConfig() zapcore.EncoderConfig {
	cfg := fileEncoderConfig()
	cfg.TimeKey = ""
	cfg.EncodeLevel = viewLevelEncoder
	// square brackets would be read as colour tags by the view
	cfg.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("(" + name + ")")
	}
	return cfg
}

// viewLevelEncoder colours the level with tview's dynamic colour tags.
func viewLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	color := "green"
	switch {
	case level == zapcore.WarnLevel:
		color = "yellow"
	case level >= zapcore.ErrorLevel:
		color = "red"
	}
	enc.AppendString(fmt.Sprintf("[%s]%s[-]", color, level.CapitalString()))
}
