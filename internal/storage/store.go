// Package storage persists scan history and per-user sustainability
// stats in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Scan is one recorded analysis result.
type Scan struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"user_id"`
	ItemName       string    `json:"item_name"`
	Category       string    `json:"category"`
	FreshnessScore int       `json:"freshness_score"`
	CO2ePerKg      float64   `json:"co2e_per_kg"`
	ScannedAt      time.Time `json:"scanned_at"`
}

// Stats is a user's aggregate scan stats. CarbonSavedKg accumulates the
// estimated avoided waste per scan (10% of the item's footprint).
type Stats struct {
	UserID              string  `json:"user_id"`
	TotalScans          int     `json:"total_scans"`
	StreakDays          int     `json:"streak_days"`
	BestStreakDays      int     `json:"best_streak_days"`
	SustainabilityScore int     `json:"sustainability_score"`
	CarbonSavedKg       float64 `json:"carbon_saved_kg"`
	LastScanDate        string  `json:"last_scan_date,omitempty"`
}

// ScanStore defines the interface for scan persistence.
type ScanStore interface {
	RecordScan(scan *Scan) (*Stats, error)
	RecentScans(userID string, limit int) ([]Scan, error)
	Stats(userID string) (*Stats, error)
	Close() error
}

// maxRecentScans caps how many scans one history query may return.
const maxRecentScans = 50

// carbonSavedFactor is the share of an item's footprint credited as
// avoided waste per scan.
const carbonSavedFactor = 0.1

// SQLiteStore implements ScanStore using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// NewSQLiteStore creates a new SQLite-based scan store at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL mode and a busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	scansQuery := `
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		item_name TEXT NOT NULL,
		category TEXT NOT NULL,
		freshness_score INTEGER NOT NULL,
		co2e_per_kg REAL NOT NULL DEFAULT 0,
		scanned_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scans_user_time ON scans(user_id, scanned_at DESC);
	`
	if _, err := s.db.Exec(scansQuery); err != nil {
		return fmt.Errorf("failed to create scans table: %w", err)
	}

	statsQuery := `
	CREATE TABLE IF NOT EXISTS user_stats (
		user_id TEXT PRIMARY KEY,
		total_scans INTEGER NOT NULL DEFAULT 0,
		streak_days INTEGER NOT NULL DEFAULT 0,
		best_streak_days INTEGER NOT NULL DEFAULT 0,
		sustainability_score INTEGER NOT NULL DEFAULT 50,
		carbon_saved_kg REAL NOT NULL DEFAULT 0,
		last_scan_date TEXT
	);
	`
	if _, err := s.db.Exec(statsQuery); err != nil {
		return fmt.Errorf("failed to create user_stats table: %w", err)
	}
	return nil
}

// RecordScan stores a scan and updates the user's stats in one
// transaction, returning the updated stats.
func (s *SQLiteStore) RecordScan(scan *Scan) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scan.UserID == "" {
		return nil, fmt.Errorf("scan user id is required")
	}
	if scan.ScannedAt.IsZero() {
		scan.ScannedAt = s.now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO scans (user_id, item_name, category, freshness_score, co2e_per_kg, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, scan.UserID, scan.ItemName, scan.Category, scan.FreshnessScore, scan.CO2ePerKg, scan.ScannedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert scan: %w", err)
	}
	scan.ID, _ = res.LastInsertId()

	stats, err := statsInTx(tx, scan.UserID)
	if err != nil {
		return nil, err
	}

	today := scan.ScannedAt.Format("2006-01-02")
	yesterday := scan.ScannedAt.AddDate(0, 0, -1).Format("2006-01-02")
	switch stats.LastScanDate {
	case today:
		// Streak unchanged, already scanned today.
	case yesterday:
		stats.StreakDays++
	default:
		stats.StreakDays = 1
	}

	stats.TotalScans++
	if stats.StreakDays > stats.BestStreakDays {
		stats.BestStreakDays = stats.StreakDays
	}
	stats.CarbonSavedKg += scan.CO2ePerKg * carbonSavedFactor
	stats.SustainabilityScore = sustainabilityScore(stats.TotalScans, stats.StreakDays)
	stats.LastScanDate = today

	_, err = tx.Exec(`
		INSERT INTO user_stats (user_id, total_scans, streak_days, best_streak_days, sustainability_score, carbon_saved_kg, last_scan_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			total_scans = excluded.total_scans,
			streak_days = excluded.streak_days,
			best_streak_days = excluded.best_streak_days,
			sustainability_score = excluded.sustainability_score,
			carbon_saved_kg = excluded.carbon_saved_kg,
			last_scan_date = excluded.last_scan_date
	`, stats.UserID, stats.TotalScans, stats.StreakDays, stats.BestStreakDays, stats.SustainabilityScore, stats.CarbonSavedKg, stats.LastScanDate)
	if err != nil {
		return nil, fmt.Errorf("failed to update stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit scan: %w", err)
	}
	return stats, nil
}

// RecentScans retrieves a user's scans, newest first. limit is capped at
// 50; zero or negative means the cap.
func (s *SQLiteStore) RecentScans(userID string, limit int) ([]Scan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > maxRecentScans {
		limit = maxRecentScans
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, item_name, category, freshness_score, co2e_per_kg, scanned_at
		FROM scans WHERE user_id = ? ORDER BY scanned_at DESC, id DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	scans := []Scan{}
	for rows.Next() {
		var sc Scan
		if err := rows.Scan(&sc.ID, &sc.UserID, &sc.ItemName, &sc.Category, &sc.FreshnessScore, &sc.CO2ePerKg, &sc.ScannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		scans = append(scans, sc)
	}
	return scans, rows.Err()
}

// Stats retrieves a user's aggregate stats. A user with no scans gets
// zero-valued stats with the baseline sustainability score.
func (s *SQLiteStore) Stats(userID string) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats
	var lastScanDate sql.NullString
	err := s.db.QueryRow(`
		SELECT user_id, total_scans, streak_days, best_streak_days, sustainability_score, carbon_saved_kg, last_scan_date
		FROM user_stats WHERE user_id = ?
	`, userID).Scan(&stats.UserID, &stats.TotalScans, &stats.StreakDays, &stats.BestStreakDays, &stats.SustainabilityScore, &stats.CarbonSavedKg, &lastScanDate)

	if err == sql.ErrNoRows {
		return &Stats{UserID: userID, SustainabilityScore: 50}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	stats.LastScanDate = lastScanDate.String
	return &stats, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func statsInTx(tx *sql.Tx, userID string) (*Stats, error) {
	stats := &Stats{UserID: userID}
	var lastScanDate sql.NullString
	err := tx.QueryRow(`
		SELECT total_scans, streak_days, best_streak_days, sustainability_score, carbon_saved_kg, last_scan_date
		FROM user_stats WHERE user_id = ?
	`, userID).Scan(&stats.TotalScans, &stats.StreakDays, &stats.BestStreakDays, &stats.SustainabilityScore, &stats.CarbonSavedKg, &lastScanDate)
	if err == sql.ErrNoRows {
		return stats, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	stats.LastScanDate = lastScanDate.String
	return stats, nil
}

// sustainabilityScore is a simple engagement score: a baseline of 50
// plus 2 points per scan and 3 per streak day, capped at 100.
func sustainabilityScore(totalScans, streakDays int) int {
	score := 50 + 2*totalScans + 3*streakDays
	if score > 100 {
		score = 100
	}
	return score
}
