//go:build !sqlite
// +build !sqlite

package store

import "errors"

func newSQLiteBackend(path string) (Backend, error) {
	_ = path
	return nil, errors.New("sqlite store not built: build with -tags sqlite")
}
