// Package testing prepares the process environment for package tests that
// build the full router. Import it for its side effects.
package testing

import "os"

// DefaultMongoURI satisfies the required MONGODB_URI setting without a server.
const DefaultMongoURI = "mongodb://127.0.0.1:0/nutriscan-test"

func init() {
	_ = os.Setenv("NUTRISCAN_TEST_MODE", "1")
	if os.Getenv("MONGODB_URI") == "" {
		_ = os.Setenv("MONGODB_URI", DefaultMongoURI)
	}
}
