// Package database manages the PostgreSQL connection pool backing the
// message archive.
package database
