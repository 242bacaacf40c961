package version

import "testing"

func TestFull(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "dev"
	if got := Full(); got != "folio version dev (built from source)" {
		t.Errorf("Full() with dev = %q", got)
	}

	Version = "1.2.3"
	if got := Full(); got != "folio version 1.2.3" {
		t.Errorf("Full() with 1.2.3 = %q", got)
	}
}

func TestUserAgent(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "1.0.0"
	if got := UserAgent(); got != "folio/1.0.0 (https://github.com/foliohq/folio-cli)" {
		t.Errorf("UserAgent() = %q", got)
	}
}
