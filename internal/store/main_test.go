package store

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain checks that Close leaves no writer goroutine behind.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
