package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Settings table - application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Calibration sessions table - one row per search run
		`CREATE TABLE IF NOT EXISTS calibration_sessions (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			budget INTEGER NOT NULL,
			trials INTEGER NOT NULL DEFAULT 0,
			reason TEXT NOT NULL DEFAULT '',
			best_sensitivity REAL,
			best_smoothing REAL,
			best_cost REAL,
			mean_cost REAL NOT NULL DEFAULT 0,
			stddev_cost REAL NOT NULL DEFAULT 0
		)`,

		// Calibration trials table - one row per scored grid cell
		`CREATE TABLE IF NOT EXISTS calibration_trials (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES calibration_sessions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			sensitivity REAL NOT NULL,
			smoothing REAL NOT NULL,
			cost REAL NOT NULL,
			outcomes TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_calibration_trials_session_id ON calibration_trials(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_calibration_sessions_started_at ON calibration_sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
