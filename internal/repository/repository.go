// Package repository holds the pgx-backed data access layer. Each entity gets
// its own small repository; all of them share the process-wide pool.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
