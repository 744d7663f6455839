package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	Logf("frames=%d", 3)
	if got != "frames=3" {
		t.Errorf("custom logger got %q", got)
	}

	// nil installs a no-op logger that must not panic or reach the old one
	got = ""
	SetLogger(nil)
	Logf("ignored")
	if got != "" {
		t.Errorf("no-op logger forwarded %q", got)
	}
}

func TestDebugf(t *testing.T) {
	original := Logf
	defer func() {
		Logf = original
		SetVerbose(false)
	}()

	calls := 0
	SetLogger(func(string, ...interface{}) { calls++ })

	SetVerbose(false)
	Debugf("hidden")
	if calls != 0 {
		t.Fatalf("Debugf logged while verbose is off")
	}

	SetVerbose(true)
	Debugf("shown")
	if calls != 1 {
		t.Fatalf("Debugf calls = %d, want 1", calls)
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}
}
