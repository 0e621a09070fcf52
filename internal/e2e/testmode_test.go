package e2e

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hospitalia/hospitalia/internal/app"
	_ "github.com/hospitalia/hospitalia/testing"
)

// The blank import above flips HOSPITALIA_TEST_MODE before any test runs, so
// the binaries' side-effectful startup paths stay off under go test.
func TestModeGuardActive(t *testing.T) {
	require.Equal(t, "1", os.Getenv("HOSPITALIA_TEST_MODE"))
	require.True(t, app.InTestMode())
}
