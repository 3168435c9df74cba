package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/civil"

	"github.com/conorfennell/thaiflash/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

const (
	versionKey = "storage_version"
	activeKey  = "active_profile"
)

// ErrStorageCorrupt marks persisted data that could not be decoded.
var ErrStorageCorrupt = errors.New("storage: corrupt profile data")

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection, ensures the schema is up to date
// and wipes profile data written under a different storage version.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps pragmas and transactions on the same handle.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := conn.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.ensureVersion(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) ensureVersion() error {
	version, ok, err := db.meta(versionKey)
	if err != nil {
		return err
	}
	if ok && version == StorageVersion {
		return nil
	}
	if ok {
		slog.Warn("Storage version mismatch, wiping profile data", "found", version, "want", StorageVersion)
	}
	if err := db.wipe(); err != nil {
		return err
	}
	return db.setMeta(versionKey, StorageVersion)
}

// wipe removes every profile, its card states and the active pointer.
func (db *DB) wipe() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin wipe: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM srs_states`,
		`DELETE FROM profiles`,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to wipe profile data: %w", err)
		}
	}
	if _, err := tx.Exec(`DELETE FROM meta WHERE key = ?`, activeKey); err != nil {
		return fmt.Errorf("failed to clear active profile: %w", err)
	}
	return tx.Commit()
}

// LoadProfiles returns all stored profiles in creation order. Data that
// cannot be decoded is wiped and an empty list is returned.
func (db *DB) LoadProfiles() ([]domain.Profile, error) {
	profiles, err := db.loadProfiles()
	if errors.Is(err, ErrStorageCorrupt) {
		slog.Warn("Stored profiles are unreadable, starting fresh", "error", err)
		if wipeErr := db.wipe(); wipeErr != nil {
			return nil, wipeErr
		}
		return nil, nil
	}
	return profiles, err
}

func (db *DB) loadProfiles() ([]domain.Profile, error) {
	rows, err := db.conn.Query(`
		SELECT id, name, created_at, last_used, settings, mastered
		FROM profiles ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	index := make(map[string]int)
	for rows.Next() {
		var p domain.Profile
		var settings, mastered string
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.LastUsed, &settings, &mastered); err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		if err := json.Unmarshal([]byte(settings), &p.Settings); err != nil {
			return nil, fmt.Errorf("%w: settings of profile %s: %w", ErrStorageCorrupt, p.ID, err)
		}
		var names []string
		if err := json.Unmarshal([]byte(mastered), &names); err != nil {
			return nil, fmt.Errorf("%w: mastered set of profile %s: %w", ErrStorageCorrupt, p.ID, err)
		}
		p.Mastered = make(map[string]struct{}, len(names))
		for _, name := range names {
			p.Mastered[name] = struct{}{}
		}
		p.SrsStates = make(map[string]domain.SrsState)
		index[p.ID] = len(profiles)
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}

	stateRows, err := db.conn.Query(`
		SELECT profile_id, card_key, repetitions, interval_days, ease, due
		FROM srs_states
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get card states: %w", err)
	}
	defer stateRows.Close()

	for stateRows.Next() {
		var profileID, key, due string
		var s domain.SrsState
		if err := stateRows.Scan(&profileID, &key, &s.Repetitions, &s.Interval, &s.Ease, &due); err != nil {
			return nil, fmt.Errorf("failed to scan card state row: %w", err)
		}
		s.Due, err = civil.ParseDate(due)
		if err != nil {
			return nil, fmt.Errorf("%w: due date of card %s: %w", ErrStorageCorrupt, key, err)
		}
		if s.Repetitions < 0 || s.Interval < 0 || s.Ease < 1.3 {
			return nil, fmt.Errorf("%w: card %s has out of range state %+v", ErrStorageCorrupt, key, s)
		}
		i, ok := index[profileID]
		if !ok {
			continue
		}
		profiles[i].SrsStates[key] = s
	}
	if err := stateRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read card states: %w", err)
	}
	return profiles, nil
}

// SaveProfiles replaces every stored profile with the given list. It is the
// bulk counterpart of SaveProfile, used when a whole profile set is restored.
func (db *DB) SaveProfiles(profiles []domain.Profile) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM srs_states`); err != nil {
		return fmt.Errorf("failed to clear card states: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM profiles`); err != nil {
		return fmt.Errorf("failed to clear profiles: %w", err)
	}
	for i, p := range profiles {
		if err := upsertProfile(tx, p, i); err != nil {
			return err
		}
		if err := insertStates(tx, p); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit profiles: %w", err)
	}
	return nil
}

// SaveProfile inserts or updates a single profile and its card states.
func (db *DB) SaveProfile(p domain.Profile) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin save of profile %s: %w", p.ID, err)
	}
	defer tx.Rollback()

	var position int
	err = tx.QueryRow(`SELECT position FROM profiles WHERE id = ?`, p.ID).Scan(&position)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRow(`SELECT COALESCE(MAX(position) + 1, 0) FROM profiles`).Scan(&position)
	}
	if err != nil {
		return fmt.Errorf("failed to find position of profile %s: %w", p.ID, err)
	}

	if err := upsertProfile(tx, p, position); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM srs_states WHERE profile_id = ?`, p.ID); err != nil {
		return fmt.Errorf("failed to clear card states of profile %s: %w", p.ID, err)
	}
	if err := insertStates(tx, p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit profile %s: %w", p.ID, err)
	}
	return nil
}

// SaveCardState inserts or updates the state of one card. The profile must
// already be stored.
func (db *DB) SaveCardState(profileID, key string, s domain.SrsState) error {
	_, err := db.conn.Exec(`
		INSERT INTO srs_states (profile_id, card_key, repetitions, interval_days, ease, due)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile_id, card_key) DO UPDATE SET
			repetitions = excluded.repetitions,
			interval_days = excluded.interval_days,
			ease = excluded.ease,
			due = excluded.due
	`, profileID, key, s.Repetitions, s.Interval, s.Ease, s.Due.String())
	if err != nil {
		return fmt.Errorf("failed to save card state %s of profile %s: %w", key, profileID, err)
	}
	return nil
}

// DeleteProfile removes a profile and its card states.
func (db *DB) DeleteProfile(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete of profile %s: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM srs_states WHERE profile_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete card states of profile %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM profiles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", id, err)
	}
	return tx.Commit()
}

// ActiveProfileID returns the stored active profile pointer.
func (db *DB) ActiveProfileID() (string, bool, error) {
	return db.meta(activeKey)
}

// SetActiveProfileID stores the active profile pointer.
func (db *DB) SetActiveProfileID(id string) error {
	return db.setMeta(activeKey, id)
}

// ClearActiveProfileID removes the active profile pointer.
func (db *DB) ClearActiveProfileID() error {
	if _, err := db.conn.Exec(`DELETE FROM meta WHERE key = ?`, activeKey); err != nil {
		return fmt.Errorf("failed to clear active profile: %w", err)
	}
	return nil
}

func (db *DB) meta(key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func (db *DB) setMeta(key, value string) error {
	_, err := db.conn.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func upsertProfile(tx *sql.Tx, p domain.Profile, position int) error {
	settings, err := json.Marshal(p.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings of profile %s: %w", p.ID, err)
	}
	mastered, err := json.Marshal(p.MasteredList())
	if err != nil {
		return fmt.Errorf("failed to encode mastered set of profile %s: %w", p.ID, err)
	}

	_, err = tx.Exec(`
		INSERT INTO profiles (id, name, position, created_at, last_used, settings, mastered)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			last_used = excluded.last_used,
			settings = excluded.settings,
			mastered = excluded.mastered
	`,
		p.ID,
		p.Name,
		position,
		p.CreatedAt.UTC(),
		p.LastUsed.UTC(),
		string(settings),
		string(mastered),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", p.ID, err)
	}
	return nil
}

func insertStates(tx *sql.Tx, p domain.Profile) error {
	if len(p.SrsStates) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO srs_states (profile_id, card_key, repetitions, interval_days, ease, due)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare card state insert: %w", err)
	}
	defer stmt.Close()

	for key, s := range p.SrsStates {
		if _, err := stmt.Exec(p.ID, key, s.Repetitions, s.Interval, s.Ease, s.Due.String()); err != nil {
			return fmt.Errorf("failed to save card state %s of profile %s: %w", key, p.ID, err)
		}
	}
	return nil
}
