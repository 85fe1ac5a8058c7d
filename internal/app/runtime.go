package app

import (
	"os"
	"sync"
)

// TestModeEnv, when set to "1", keeps binaries and the router free of
// process-level side effects such as access logging.
const TestModeEnv = "NUTRISCAN_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(TestModeEnv) == "1"
})

// InTestMode reports whether TestModeEnv was set when first checked.
func InTestMode() bool {
	return testMode()
}
