package testutil

import (
	"fmt"
	"os"
	"testing"
)

// CheckEnvironment returns an error unless GO_ENV is "test". Tests create and
// drop tables, so they must never reach a development or production database.
func CheckEnvironment() error {
	if env := os.Getenv("GO_ENV"); env != "test" {
		return fmt.Errorf("refusing to run tests with GO_ENV=%q, use GO_ENV=test go test ./...", env)
	}
	return nil
}

// RequireTestEnvironment fails t when CheckEnvironment does
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if err := CheckEnvironment(); err != nil {
		t.Fatal(err)
	}
}

// Main runs a package's tests after CheckEnvironment passes
func Main(m *testing.M) {
	if err := CheckEnvironment(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}
