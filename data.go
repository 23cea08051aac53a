package bme280

import (
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Reading is a timestamped Sample as stored and broadcast.
type Reading struct {
	Type      string `json:"type"`
	Location  string `json:"location,omitempty"`
	Timestamp int64  `json:"timestamp"` // unix microseconds
	Sample
}

// Recorder keeps a ring of recent readings in memory and every reading in
// sqlite.
type Recorder struct {
	db           *sql.DB
	mu           sync.Mutex
	readings     []Reading // circular buffer of recent readings
	maxReadings  int
	currentIndex int
	count        int
}

// NewRecorder opens (or creates) the sqlite database at path and keeps the
// last maxReadings readings in memory.
func NewRecorder(path string, maxReadings int) (*Recorder, error) {
	if maxReadings <= 0 {
		maxReadings = 1000
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS readings (
			timestamp INTEGER PRIMARY KEY,
			temperature REAL,
			pressure REAL,
			humidity REAL
		)
	`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create readings table")
	}

	return &Recorder{
		db:          db,
		readings:    make([]Reading, maxReadings),
		maxReadings: maxReadings,
	}, nil
}

func (r *Recorder) Close() error {
	return r.db.Close()
}

// AddReading stores reading in the ring and the database.
func (r *Recorder) AddReading(reading Reading) error {
	r.mu.Lock()
	r.readings[r.currentIndex] = reading
	r.currentIndex = (r.currentIndex + 1) % r.maxReadings
	if r.count < r.maxReadings {
		r.count++
	}
	r.mu.Unlock()

	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO readings (
			timestamp,
			temperature,
			pressure,
			humidity
		) VALUES (?, ?, ?, ?)`,
		reading.Timestamp,
		reading.Temperature,
		reading.Pressure,
		reading.Humidity,
	)
	return errors.Wrap(err, "failed to insert reading")
}

// Recent returns the readings held in memory, oldest first.
func (r *Recorder) Recent() []Reading {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Reading, 0, r.count)
	start := (r.currentIndex - r.count + r.maxReadings) % r.maxReadings
	for i := 0; i < r.count; i++ {
		out = append(out, r.readings[(start+i)%r.maxReadings])
	}
	return out
}

// GetHistoricalData returns the stored readings with a timestamp in
// [startTime, endTime], oldest first.
func (r *Recorder) GetHistoricalData(startTime, endTime int64) ([]Reading, error) {
	rows, err := r.db.Query(`
		SELECT
			timestamp,
			temperature,
			pressure,
			humidity
		FROM readings
		WHERE timestamp BETWEEN ? AND ?
		ORDER BY timestamp ASC
	`, startTime, endTime)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query readings")
	}
	defer rows.Close()

	results := []Reading{}
	for rows.Next() {
		point := Reading{Type: readingType}
		err := rows.Scan(
			&point.Timestamp,
			&point.Temperature,
			&point.Pressure,
			&point.Humidity,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan reading")
		}
		results = append(results, point)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate readings")
	}
	return results, nil
}
