// Package database provides the SQLite store behind the transducer registry.
//
// It opens the database with WAL mode and foreign keys, and applies the
// embedded schema migrations (see the migrations package).
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//	repo := transducer.NewSQLiteRepository(db.DB)
package database
