package jobsystem

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain enables goroutine leak detection for all tests in this package.
// Every test must shut down the job systems it creates.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
