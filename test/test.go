// Package test is a small set of testing.T assertion helpers shared by the
// rest of the repository's _test.go files, so every package's tests read the
// same way instead of each reaching for its own comparison idiom.
package test

import (
	"testing"

	"github.com/go-test/deep"
)

// ExpectEquality fails t if got and want are not deeply equal, reporting the
// specific differing fields rather than dumping both values whole.
func ExpectEquality(t *testing.T, got, want any) {
	t.Helper()
	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("not equal:\ngot:  %#v\nwant: %#v\ndiff: %v", got, want, diff)
	}
}

// ExpectFailure fails t if v does not represent a failure: a non-nil error,
// a false bool, or a false-ish ok value from a two-result expression.
func ExpectFailure(t *testing.T, v any) {
	t.Helper()
	switch x := v.(type) {
	case error:
		if x == nil {
			t.Errorf("expected a non-nil error, got nil")
		}
	case bool:
		if x {
			t.Errorf("expected false, got true")
		}
	default:
		t.Errorf("ExpectFailure: unsupported type %T", v)
	}
}

// ExpectSuccess fails t if v represents a failure: a non-nil error, or a
// false bool.
func ExpectSuccess(t *testing.T, v any) {
	t.Helper()
	switch x := v.(type) {
	case nil:
		// a nil error arrives here as an untyped nil interface value
	case error:
		if x != nil {
			t.Errorf("unexpected error: %v", x)
		}
	case bool:
		if !x {
			t.Errorf("expected true, got false")
		}
	default:
		t.Errorf("ExpectSuccess: unsupported type %T", v)
	}
}
