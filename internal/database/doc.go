// Package database provides the SurrealDB access layer.
//
// The Database interface exposes three query methods:
//   - Query: one {status, result} entry per statement
//   - QueryOne: the first record of the first statement
//   - Execute: no return value (for mutations)
//
// Failures wrap the sentinels ErrNotFound, ErrDuplicate, ErrConnection and
// ErrQuery; check them with errors.Is.
//
//	db := database.NewSurrealDB(cfg)
//	if err := db.Connect(ctx); err != nil { ... }
//	defer db.Close()
package database
