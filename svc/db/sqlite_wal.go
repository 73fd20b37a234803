package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"freepaste/svc/util"

	_ "github.com/mattn/go-sqlite3"
)

const checkpointInterval = 5 * time.Minute

// StartWALMaintenance periodically checkpoints the WAL so it doesn't grow
// unbounded under sustained paste traffic. Runs until quit is closed and
// performs a final checkpoint on shutdown.
func StartWALMaintenance(db *sql.DB, quit chan struct{}) {
	ticker := time.NewTicker(checkpointInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := performWALCheckpoint(db); err != nil {
				util.Error().Err(err).Msg("WAL checkpoint failed")
			}
		case <-quit:
			if err := performWALCheckpoint(db); err != nil {
				util.Error().Err(err).Msg("final WAL checkpoint failed")
			}
			return
		}
	}
}

func performWALCheckpoint(db *sql.DB) error {
	start := time.Now()
	var busyPages, logPages, checkpointed int
	err := db.QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busyPages, &logPages, &checkpointed)
	if err != nil {
		util.Warn().Err(err).Msg("PASSIVE checkpoint query failed")
		if _, err := db.Exec("PRAGMA wal_checkpoint(PASSIVE)"); err != nil {
			return fmt.Errorf("PASSIVE checkpoint exec failed: %w", err)
		}
	} else if logPages > 1000 || busyPages > 0 {
		util.Info().Msg("escalating to TRUNCATE checkpoint")
		err = db.QueryRow("PRAGMA wal_checkpoint(TRUNCATE)").Scan(&busyPages, &logPages, &checkpointed)
		if err != nil {
			if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
				return fmt.Errorf("TRUNCATE checkpoint failed: %w", err)
			}
		}
	}
	if err := verifyIntegrity(db); err != nil {
		util.Error().Err(err).Msg("database integrity check failed after checkpoint")
		return fmt.Errorf("integrity check failed: %w", err)
	}
	util.Debug().Dur("duration", time.Since(start)).Msg("WAL checkpoint completed")
	return nil
}

func verifyIntegrity(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	var result string
	err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result)
	if err != nil {
		return fmt.Errorf("integrity_check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity_check returned: %s", result)
	}
	return nil
}
