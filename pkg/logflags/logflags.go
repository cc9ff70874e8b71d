package logflags

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var memrauder = false
var uidMap = false
var poller = false
var reader = false

var logOut io.WriteCloser

func makeLogger(level logrus.Level, fields Fields) Logger {
	if lf := loggerFactory; lf != nil {
		return lf(level, fields, logOut)
	}
	logger := logrus.New().WithFields(logrus.Fields(fields))
	logger.Logger.Formatter = DefaultFormatter()
	if logOut != nil {
		logger.Logger.Out = logOut
	}
	logger.Logger.Level = level
	return &logrusLogger{logger}
}

// makeFlaggableLogger returns a logger that logs everything when flag is
// set and only errors otherwise.
func makeFlaggableLogger(flag bool, fields Fields) Logger {
	if !flag {
		return makeLogger(logrus.ErrorLevel, fields)
	}
	return makeLogger(logrus.DebugLevel, fields)
}

// Memrauder returns true if the decoding layer should log.
func Memrauder() bool {
	return memrauder
}

// MemrauderLogger returns a logger for the decoding layer.
func MemrauderLogger() Logger {
	return makeFlaggableLogger(memrauder, Fields{"layer": "memrauder"})
}

// UidMap returns true if every entity lookup should be logged.
func UidMap() bool {
	return uidMap
}

// UidMapLogger returns a logger for entity lookups. Lookup inconsistencies
// are warnings, so the logger is never quieter than WarnLevel.
func UidMapLogger() Logger {
	if !uidMap {
		return makeLogger(logrus.WarnLevel, Fields{"layer": "uidmap"})
	}
	return makeLogger(logrus.DebugLevel, Fields{"layer": "uidmap"})
}

// Poller returns true if the poll loop should log every cycle.
func Poller() bool {
	return poller
}

// PollerLogger returns a logger for the poll loop. Failed polls are
// logged at WarnLevel even when the poller layer is off.
func PollerLogger() Logger {
	if !poller {
		return makeLogger(logrus.WarnLevel, Fields{"layer": "poller"})
	}
	return makeLogger(logrus.DebugLevel, Fields{"layer": "poller"})
}

// Reader returns true if reads of the target's memory should be logged.
func Reader() bool {
	return reader
}

// ReaderLogger returns a logger for the process memory reader.
func ReaderLogger() Logger {
	return makeFlaggableLogger(reader, Fields{"layer": "reader"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets the log flags based on the contents of logstr.
// If logDest is not empty logs will be redirected to the file descriptor or
// file path specified by logDest.
func Setup(logFlag bool, logstr, logDest string) error {
	if logDest != "" {
		n, err := strconv.Atoi(logDest)
		if err == nil {
			logOut = os.NewFile(uintptr(n), "ml2mem-logs")
		} else {
			fh, err := os.Create(logDest)
			if err != nil {
				return fmt.Errorf("could not create log file: %v", err)
			}
			logOut = fh
		}
	}
	if !logFlag {
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logstr == "" {
		logstr = "memrauder"
	}
	v := strings.Split(logstr, ",")
	for _, logcmd := range v {
		switch logcmd {
		case "memrauder":
			memrauder = true
		case "uidmap":
			uidMap = true
		case "poller":
			poller = true
		case "reader":
			reader = true
		default:
			fmt.Fprintf(os.Stderr, "Warning: unknown log output value %q, run 'ml2mem help log' for usage.\n", logcmd)
		}
	}
	return nil
}

// Close closes the logger output.
func Close() {
	if logOut != nil {
		logOut.Close()
	}
}

// DefaultFormatter provides a simplified version of logrus.TextFormatter that
// doesn't make logs unreadable when they are output to a text file or to a
// terminal that doesn't support colors.
func DefaultFormatter() logrus.Formatter {
	return textFormatterInstance
}

type textFormatter struct {
}

func (f *textFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *strings.Builder = &strings.Builder{}

	fmt.Fprintf(b, "%s %s ", entry.Time.Format("2006-01-02T15:04:05Z07:00"), strings.ToLower(entry.Level.String()))

	if layer, ok := entry.Data["layer"]; ok {
		fmt.Fprintf(b, "%v ", layer)
	}

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != "layer" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s=%v ", k, entry.Data[k])
	}

	b.WriteString(entry.Message)
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

var textFormatterInstance = &textFormatter{}
