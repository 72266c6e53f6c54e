//go:build libsql

package db

// libSQL needs cgo, so it is only linked into builds tagged "libsql".
import _ "github.com/tursodatabase/go-libsql"
