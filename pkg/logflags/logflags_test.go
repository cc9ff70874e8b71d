package logflags

import (
	"bytes"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestMakeLogger_usingLoggerFactory(t *testing.T) {
	if loggerFactory != nil {
		t.Fatalf("expected loggerFactory to be nil; but was <%v>", loggerFactory)
	}
	defer func() {
		loggerFactory = nil
	}()
	if logOut != nil {
		t.Fatalf("expected logOut to be nil; but was <%v>", logOut)
	}
	logOut = &bufferWriter{}
	defer func() {
		logOut = nil
	}()

	expectedLogger := &logrusLogger{}
	SetLoggerFactory(func(level logrus.Level, fields Fields, out io.Writer) Logger {
		if level != logrus.TraceLevel {
			t.Fatalf("expected level to be <%v>; but was <%v>", logrus.TraceLevel, level)
		}
		if len(fields) != 1 || fields["foo"] != "bar" {
			t.Fatalf("expected fields to be {'foo':'bar'}; but was <%v>", fields)
		}
		if out != logOut {
			t.Fatalf("expected out to be <%v>; but was <%v>", logOut, out)
		}
		return expectedLogger
	})

	actual := makeLogger(logrus.TraceLevel, Fields{"foo": "bar"})
	if actual != expectedLogger {
		t.Fatalf("expected actual to <%v>; but was <%v>", expectedLogger, actual)
	}
}

func TestMakeFlaggableLogger_withFlagFalse(t *testing.T) {
	actual := makeFlaggableLogger(false, Fields{"foo": "bar"})
	actualEntry, expectedType := actual.(*logrusLogger)
	if !expectedType {
		t.Fatalf("expected actual to be of type <%v>; but was <%v>", reflect.TypeOf((*logrus.Entry)(nil)), reflect.TypeOf(actualEntry))
	}
	if actualEntry.Entry.Logger.Level != logrus.ErrorLevel {
		t.Fatalf("expected actualEntry.Entry.Logger.Level to be <%v>; but was <%v>", logrus.ErrorLevel, actualEntry.Logger.Level)
	}
	if len(actualEntry.Entry.Data) != 1 || actualEntry.Data["foo"] != "bar" {
		t.Fatalf("expected actualEntry.Entry.Data to be {'foo':'bar'}; but was <%v>", actualEntry.Data)
	}
}

func TestMakeFlaggableLogger_withFlagTrue(t *testing.T) {
	actual := makeFlaggableLogger(true, Fields{"foo": "bar"})
	actualEntry, expectedType := actual.(*logrusLogger)
	if !expectedType {
		t.Fatalf("expected actual to be of type <%v>; but was <%v>", reflect.TypeOf((*logrus.Entry)(nil)), reflect.TypeOf(actualEntry))
	}
	if actualEntry.Entry.Logger.Level != logrus.DebugLevel {
		t.Fatalf("expected actualEntry.Entry.Logger.Level to be <%v>; but was <%v>", logrus.DebugLevel, actualEntry.Logger.Level)
	}
}

func TestUidMapLogger_warnsWhenDisabled(t *testing.T) {
	uidMap = false
	actual := UidMapLogger().(*logrusLogger)
	if actual.Entry.Logger.Level != logrus.WarnLevel {
		t.Fatalf("expected level to be <%v>; but was <%v>", logrus.WarnLevel, actual.Entry.Logger.Level)
	}
}

func TestSetup(t *testing.T) {
	defer func() {
		memrauder, uidMap, poller, reader = false, false, false, false
	}()
	if err := Setup(false, "uidmap", ""); err != errLogstrWithoutLog {
		t.Fatalf("expected error <%v>; but was <%v>", errLogstrWithoutLog, err)
	}
	if err := Setup(true, "uidmap,poller", ""); err != nil {
		t.Fatal(err)
	}
	if memrauder || !uidMap || !poller || reader {
		t.Fatalf("unexpected flags memrauder=%v uidmap=%v poller=%v reader=%v", memrauder, uidMap, poller, reader)
	}
}

func TestTextFormatter(t *testing.T) {
	out := &bufferWriter{}
	logger := logrus.New()
	logger.Out = out
	logger.Formatter = DefaultFormatter()
	logger.WithFields(logrus.Fields{"layer": "uidmap", "uid": 7}).Warn("mismatch")

	line := out.String()
	if !strings.Contains(line, " warning uidmap uid=7 mismatch\n") {
		t.Fatalf("unexpected log line %q", line)
	}
}

type bufferWriter struct {
	bytes.Buffer
}

func (bw bufferWriter) Close() error {
	return nil
}
