package version

import "testing"

func TestString(t *testing.T) {
	orig := Version
	Version = "1.2.3"
	defer func() { Version = orig }()

	want := "spectro 1.2.3 (commit unknown, built unknown)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
