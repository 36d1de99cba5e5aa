// Package database stores the history of conversion runs in SQLite.
//
// HistoryDB records every finished run and the pages it visited so the
// history command can list them later. The crawler never reads from it:
// each run starts with an empty visited set.
//
// The driver is modernc.org/sqlite, a CGO-free SQLite implementation.
package database
