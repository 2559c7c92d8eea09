//go:build integration

package application_integration_tests

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/Black-And-White-Club/hunting-party/integration_tests/testutils"
)

var env *testutils.TestEnvironment

func TestMain(m *testing.M) {
	var err error
	env, err = testutils.NewTestEnvironment(context.Background())
	if err != nil {
		log.Fatalf("failed to start test environment: %v", err)
	}
	code := m.Run()
	env.Cleanup()
	os.Exit(code)
}
