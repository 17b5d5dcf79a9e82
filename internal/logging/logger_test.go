package logging_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"ganttview/internal/logging"
)

func TestFormatter_Line(t *testing.T) {
	f := &logging.Formatter{System: "ganttview"}
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2024, 1, 10, 15, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "list fetch failed",
		Data: logrus.Fields{
			"list":  "Launch plan",
			"error": errors.New("boom"),
		},
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line := string(out)

	for _, want := range []string{
		"2024-01-10 15:04:05 ",
		"source=ganttview",
		"level=WARNING",
		`msg="list fetch failed"`,
		"error=boom",
		`list="Launch plan"`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("expected %q in %q", want, line)
		}
	}
	if !strings.HasSuffix(line, "\n") {
		t.Error("expected trailing newline")
	}
	if strings.Index(line, "error=") > strings.Index(line, "list=") {
		t.Error("expected fields sorted by key")
	}
}
