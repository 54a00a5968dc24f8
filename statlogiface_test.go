package cinetl

import (
	"bytes"
	"log"
	"testing"
)

func TestLoggers(t *testing.T) {
	tests := []struct {
		name   string
		mk     func(l *log.Logger) Logger
		expOut string
	}{
		{"std", func(l *log.Logger) Logger { return StdLogger{l} }, "info 1\n"},
		{"verbose", func(l *log.Logger) Logger { return VerboseLogger{l} }, "info 1\ndebug 2\n"},
	}
	for _, test := range tests {
		var buf bytes.Buffer
		l := test.mk(log.New(&buf, "", 0))
		l.Printf("info %d", 1)
		l.Debugf("debug %d", 2)
		if buf.String() != test.expOut {
			t.Errorf("%s: got %q, want %q", test.name, buf.String(), test.expOut)
		}
	}
}
