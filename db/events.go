package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dmaitland/alarm-controller/internal/model"
)

// InsertAlarmEvent records one confirmed alarm and returns its row id.
func InsertAlarmEvent(db *sql.DB, ev model.AlarmEvent) (int64, error) {
	res, err := db.Exec(`INSERT INTO events (zone_id, label, detected_at) VALUES (?, ?, ?)`,
		ev.ZoneID, ev.Label, ev.DetectedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("failed to insert alarm event: %w", err)
	}
	return res.LastInsertId()
}

// RecentEvents returns up to limit events, newest first.
func RecentEvents(db *sql.DB, limit int) ([]model.AlarmEvent, error) {
	rows, err := db.Query(`SELECT id, zone_id, label, detected_at FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []model.AlarmEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// LastEvent returns the most recent event, or nil if none exist.
func LastEvent(db *sql.DB) (*model.AlarmEvent, error) {
	events, err := RecentEvents(db, 1)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

// CountEventsByZone returns the total confirmed alarms per zone id.
func CountEventsByZone(db *sql.DB) (map[string]int, error) {
	rows, err := db.Query(`SELECT zone_id, COUNT(*) FROM events GROUP BY zone_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var zoneID string
		var n int
		if err := rows.Scan(&zoneID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[zoneID] = n
	}
	return counts, rows.Err()
}

// ClearEvents deletes the entire event history.
func ClearEvents(db *sql.DB) error {
	if _, err := db.Exec(`DELETE FROM events`); err != nil {
		return fmt.Errorf("failed to clear events: %w", err)
	}
	return nil
}

func scanEvent(rows *sql.Rows) (model.AlarmEvent, error) {
	var ev model.AlarmEvent
	var detectedAt string
	if err := rows.Scan(&ev.ID, &ev.ZoneID, &ev.Label, &detectedAt); err != nil {
		return ev, fmt.Errorf("failed to scan event: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, detectedAt)
	if err != nil {
		return ev, fmt.Errorf("failed to parse event timestamp %q: %w", detectedAt, err)
	}
	ev.DetectedAt = ts
	return ev, nil
}
