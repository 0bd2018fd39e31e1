// Package state defines the persistence capability used to keep application
// state snapshots between runs, plus a handful of Store implementations.
//
// Responsibilities:
//   - Store only loads/saves one opaque payload for one key. Encoding and
//     field exclusion belong to the caller.
//   - Implementations report failures as errors; the nanny runtime treats
//     every failure as "no prior snapshot" on load and "write skipped" on
//     save, so stores never need to retry.
//
// Backends:
//
//	MemoryStore            in-process map, optional byte quota (tests, examples)
//	FileStore              one file per key under a directory
//	state/sqlite.Store     single table in a SQLite database (modernc.org/sqlite)
//	state/postgres.Store   single table in Postgres (pgx stdlib driver)
//	state/s3.Store         one object per key in an S3 compatible bucket
package state
