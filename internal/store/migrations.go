package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create sessions and turns",
		SQL: `
			CREATE TABLE sessions (
				id          TEXT PRIMARY KEY,
				started_at  TEXT NOT NULL
			);

			CREATE TABLE turns (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
				role        TEXT NOT NULL,
				name        TEXT NOT NULL DEFAULT '',
				content     TEXT NOT NULL,
				at          TEXT NOT NULL
			);

			CREATE INDEX idx_turns_session ON turns (session_id, id);
		`,
	},
	{
		Version: 2,
		Name:    "create http cache",
		SQL: `
			CREATE TABLE http_cache (
				key         TEXT PRIMARY KEY,
				body        BLOB NOT NULL,
				expires_at  INTEGER NOT NULL
			);
		`,
	},
}
