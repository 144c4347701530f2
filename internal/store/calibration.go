package store

import (
	"database/sql"
	"errors"
	"time"
)

// CalibrationSession summarizes one calibration search run.
type CalibrationSession struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time // zero until the run ends
	Budget     int
	Trials     int
	Reason     string
	// Best* are zero when no trial completed.
	BestSensitivity float64
	BestSmoothing   float64
	BestCost        float64
	MeanCost        float64
	StddevCost      float64
}

// Finished reports whether the session has ended.
func (s *CalibrationSession) Finished() bool {
	return !s.FinishedAt.IsZero()
}

// CalibrationTrial is one scored tuning within a session. Outcomes holds
// the raw per-target results as JSON.
type CalibrationTrial struct {
	ID          string
	SessionID   string
	Seq         int
	Sensitivity float64
	Smoothing   float64
	Cost        float64
	Outcomes    string
	CreatedAt   time.Time
}

// CalibrationRepository provides CRUD operations for calibration history.
type CalibrationRepository struct {
	db *sql.DB
}

// Calibrations returns the calibration repository for this store.
func (s *Store) Calibrations() *CalibrationRepository {
	return &CalibrationRepository{db: s.db}
}

// Create inserts a new, unfinished session.
func (r *CalibrationRepository) Create(sess *CalibrationSession) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO calibration_sessions (id, started_at, budget, trials, reason)
		 VALUES (?, ?, ?, 0, '')`,
		sess.ID, sess.StartedAt, sess.Budget,
	)
	return err
}

// AddTrial records one scored trial under its session.
func (r *CalibrationRepository) AddTrial(t *CalibrationTrial) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.Outcomes == "" {
		t.Outcomes = "[]"
	}

	_, err := r.db.Exec(
		`INSERT INTO calibration_trials (id, session_id, seq, sensitivity, smoothing, cost, outcomes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SessionID, t.Seq, t.Sensitivity, t.Smoothing, t.Cost, t.Outcomes, t.CreatedAt,
	)
	return err
}

// Finish closes a session with its final summary.
func (r *CalibrationRepository) Finish(sess *CalibrationSession) error {
	if sess.FinishedAt.IsZero() {
		sess.FinishedAt = time.Now()
	}

	var bestSens, bestSmooth, bestCost any
	if sess.Trials > 0 {
		bestSens, bestSmooth, bestCost = sess.BestSensitivity, sess.BestSmoothing, sess.BestCost
	}

	result, err := r.db.Exec(
		`UPDATE calibration_sessions
		 SET finished_at = ?, trials = ?, reason = ?,
		     best_sensitivity = ?, best_smoothing = ?, best_cost = ?,
		     mean_cost = ?, stddev_cost = ?
		 WHERE id = ?`,
		sess.FinishedAt, sess.Trials, sess.Reason,
		bestSens, bestSmooth, bestCost,
		sess.MeanCost, sess.StddevCost, sess.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

const sessionColumns = `id, started_at, finished_at, budget, trials, reason,
	best_sensitivity, best_smoothing, best_cost, mean_cost, stddev_cost`

func scanSession(row interface{ Scan(...any) error }) (*CalibrationSession, error) {
	sess := &CalibrationSession{}
	var finished sql.NullTime
	var bestSens, bestSmooth, bestCost sql.NullFloat64

	err := row.Scan(&sess.ID, &sess.StartedAt, &finished, &sess.Budget, &sess.Trials,
		&sess.Reason, &bestSens, &bestSmooth, &bestCost, &sess.MeanCost, &sess.StddevCost)
	if err != nil {
		return nil, err
	}

	if finished.Valid {
		sess.FinishedAt = finished.Time
	}
	sess.BestSensitivity = bestSens.Float64
	sess.BestSmoothing = bestSmooth.Float64
	sess.BestCost = bestCost.Float64
	return sess, nil
}

// GetByID retrieves a session by its ID.
func (r *CalibrationRepository) GetByID(id string) (*CalibrationSession, error) {
	sess, err := scanSession(r.db.QueryRow(
		`SELECT `+sessionColumns+` FROM calibration_sessions WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List retrieves sessions, most recent first. limit <= 0 means all.
func (r *CalibrationRepository) List(limit int) ([]*CalibrationSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM calibration_sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*CalibrationSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Trials retrieves a session's trials in scoring order.
func (r *CalibrationRepository) Trials(sessionID string) ([]*CalibrationTrial, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, seq, sensitivity, smoothing, cost, outcomes, created_at
		 FROM calibration_trials WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trials []*CalibrationTrial
	for rows.Next() {
		t := &CalibrationTrial{}
		err := rows.Scan(&t.ID, &t.SessionID, &t.Seq, &t.Sensitivity, &t.Smoothing,
			&t.Cost, &t.Outcomes, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		trials = append(trials, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trials, nil
}

// Delete removes a session and, through the foreign key, its trials.
func (r *CalibrationRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM calibration_sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
