package version

import "testing"

func TestString(t *testing.T) {
	oldVersion, oldSHA, oldTime := Version, GitSHA, BuildTime
	defer func() { Version, GitSHA, BuildTime = oldVersion, oldSHA, oldTime }()

	Version, GitSHA, BuildTime = "1.2.0", "abc123", "2025-06-01T12:00:00Z"
	want := "1.2.0 (commit abc123, built 2025-06-01T12:00:00Z)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
