// Package repository persists prediction audit entries. Sentinel errors let
// handlers distinguish an unconfigured store from a failing one.
package repository

import "errors"

// ErrNotConfigured is returned by a nil repository, i.e. when the server
// runs without a database. Handlers translate it into 503.
var ErrNotConfigured = errors.New("audit store not configured")
