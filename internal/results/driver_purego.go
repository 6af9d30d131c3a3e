//go:build !cgo_sqlite

package results

import (
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const (
	driverName = "sqlite"
	driverType = "purego"
)
