package store

import (
	"database/sql"
	"errors"
	"time"
)

// CacheGet returns a cached value that has not expired.
func (db *DB) CacheGet(key string) ([]byte, bool, error) {
	var body []byte
	err := db.sql.QueryRow(
		`SELECT body FROM http_cache WHERE key = ? AND expires_at > ?`,
		key, db.now().UnixNano(),
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

// CachePut stores value under key for ttl.
func (db *DB) CachePut(key string, value []byte, ttl time.Duration) error {
	_, err := db.sql.Exec(
		`INSERT INTO http_cache (key, body, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body, expires_at = excluded.expires_at`,
		key, value, db.now().Add(ttl).UnixNano(),
	)
	return err
}

// CachePurge deletes expired entries and returns how many were removed.
func (db *DB) CachePurge() (int64, error) {
	res, err := db.sql.Exec(`DELETE FROM http_cache WHERE expires_at <= ?`, db.now().UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
