package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	oldV, oldSHA := Version, GitSHA
	defer func() { Version, GitSHA = oldV, oldSHA }()

	Version, GitSHA = "1.2.3", "abc123"
	s := String()
	for _, want := range []string{"1.2.3", "abc123", BuildTime} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
