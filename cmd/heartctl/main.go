// Command heartctl talks to a running prediction server, scores the sample
// patients locally, and generates operator key hashes.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
