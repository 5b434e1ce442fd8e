package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger defines the logger interface.
type Logger interface {
	// With returns a child logger carrying an extra label.
	With(label string, value string) Logger

	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Notice(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	// Critical logs, flushes every output and exits the process.
	Critical(format string, args ...interface{})
}

// assertLoggerInterface
func _() {
	var _ Logger = (*logger)(nil)
}

type logger struct {
	sync.RWMutex

	labels         labelMap
	thresholdLevel level
	output         output
	exit           func(code int)
}

// NewLoggerTag returns a new logger writing to the default outputs.
func NewLoggerTag(tag string) Logger {
	return newLogger(tag, defaultOutput())
}

// NewWriterLogger returns a logger writing uncoloured lines to w only. Tests use it to
// capture output.
func NewWriterLogger(tag string, w io.Writer) Logger {
	return newLogger(tag, newStdOutput(w, false))
}

func newLogger(tag string, out output) *logger {
	l := &logger{
		labels:         labelMap{LabelTag: tag},
		thresholdLevel: thresholdFromConfig(),
		output:         out,
		exit:           os.Exit,
	}
	if !l.thresholdLevel.IsValid() {
		panic(fmt.Sprintf("invalid log threshold level (%d, %d), [%d]",
			firstLevel, lastLevel, l.thresholdLevel))
	}
	return l
}

func (l *logger) With(label string, value string) Logger {
	l.RLock()
	defer l.RUnlock()
	labels := l.labels.clone()
	labels[label] = value
	return &logger{
		labels:         labels,
		thresholdLevel: l.thresholdLevel,
		output:         l.output,
		exit:           l.exit,
	}
}

func (l *logger) Debug(format string, args ...interface{}) {
	l.print(debugLevel, format, args...)
}

func (l *logger) Info(format string, args ...interface{}) {
	l.print(infoLevel, format, args...)
}

func (l *logger) Notice(format string, args ...interface{}) {
	l.print(noticeLevel, format, args...)
}

func (l *logger) Warn(format string, args ...interface{}) {
	l.print(warnLevel, format, args...)
}

func (l *logger) Error(format string, args ...interface{}) {
	l.print(errorLevel, format, args...)
}

func (l *logger) Critical(format string, args ...interface{}) {
	l.print(criticalLevel, format, args...)
}

// print is always called directly by a level method, so the caller sits 3 frames up.
func (l *logger) print(level level, format string, args ...interface{}) {
	defer func() {
		if level <= criticalLevel {
			Finalize()
			l.exit(1)
		}
	}()
	if level > l.thresholdLevel {
		return
	}

	l.RLock()
	m := l.labels.clone()
	l.RUnlock()

	m[labelPod] = hostName
	if m[LabelTag] == "" {
		m[LabelTag] = hostName
	}
	if level <= errorLevel {
		m.addCallerInfo(3)
	}

	l.output.output(level, m, fmt.Sprintf(format, args...)+"\n")
}
