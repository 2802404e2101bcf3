// Package database provides SQLite persistence for the Heatmiser bridge.
//
// This package manages:
//   - Opening the SQLite database with WAL mode and busy timeout
//   - Schema migrations embedded in the binary
//   - Health checks for the readiness endpoint
//   - Connection lifecycle
//
// The bridge uses SQLite for zone state history only. Live state is
// held in memory and on the MQTT broker (retained messages); the
// database exists so history survives restarts and can be queried
// for diagnostics.
//
// # Performance Characteristics
//
//   - Single writer (SQLite limitation, enforced via MaxOpenConns=1)
//   - WAL mode allows concurrent reads during writes
//   - Writes are off the polling hot path (history is best-effort)
//
// # Usage
//
//	db, err := database.Open(database.Config{
//	    Path:        "data/heatbridge.db",
//	    WALMode:     true,
//	    BusyTimeout: 5,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
