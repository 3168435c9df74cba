package storage

// StorageVersion tags the layout of persisted profile data. A database
// stamped with any other version is wiped on open.
const StorageVersion = "v2"

const schema = `
-- The 'meta' table holds the storage version and the active profile pointer.
CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- The 'profiles' table stores one row per learner.
CREATE TABLE IF NOT EXISTS profiles (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    position INTEGER NOT NULL,
    created_at DATETIME NOT NULL,
    last_used DATETIME NOT NULL,
    settings TEXT NOT NULL, -- JSON encoded domain.Settings
    mastered TEXT NOT NULL  -- JSON array of category names
);

-- The 'srs_states' table stores the SM-2 state of every rated card.
CREATE TABLE IF NOT EXISTS srs_states (
    profile_id TEXT NOT NULL,
    card_key TEXT NOT NULL,
    repetitions INTEGER NOT NULL,
    interval_days INTEGER NOT NULL,
    ease REAL NOT NULL,
    due TEXT NOT NULL, -- ISO 8601 calendar date

    PRIMARY KEY (profile_id, card_key),
    FOREIGN KEY(profile_id) REFERENCES profiles(id) ON DELETE CASCADE
);
`
