package testutil

import "testing"

// Given, When and Then name nested subtests so scenario tests read as a
// walkthrough in `go test -v` output.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}

// Step runs fn as a sequential subtest and stops the parent when it fails, so
// later steps of a stateful scenario do not run on a broken state.
func Step(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	if !t.Run(desc, fn) {
		t.FailNow()
	}
}
