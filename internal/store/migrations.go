package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	role          TEXT NOT NULL CHECK(role IN ('SECRETARY', 'UNIT')),
	avatar_seed   TEXT NOT NULL DEFAULT '',
	photo_url     TEXT NOT NULL DEFAULT '',
	division      TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	title             TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	accountable_id    INTEGER NOT NULL REFERENCES users(id),
	priority          TEXT NOT NULL CHECK(priority IN ('LOW', 'MEDIUM', 'HIGH', 'URGENT')),
	status            TEXT NOT NULL DEFAULT 'ON TRACK',
	meeting_date      TEXT NOT NULL DEFAULT '',
	due_date          TEXT NOT NULL DEFAULT '',
	original_due_date TEXT NOT NULL DEFAULT '',
	created_by        INTEGER NOT NULL REFERENCES users(id),
	created_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS task_parties (
	task_id  INTEGER NOT NULL REFERENCES tasks(id),
	user_id  INTEGER NOT NULL REFERENCES users(id),
	kind     TEXT NOT NULL CHECK(kind IN ('R', 'C', 'I')),
	position INTEGER NOT NULL,
	PRIMARY KEY (task_id, kind, position)
);

CREATE TABLE IF NOT EXISTS task_updates (
	id                 TEXT PRIMARY KEY,
	task_id            INTEGER NOT NULL REFERENCES tasks(id),
	user_id            INTEGER NOT NULL REFERENCES users(id),
	content            TEXT NOT NULL,
	mentions           TEXT NOT NULL DEFAULT '[]',
	suggested_status   TEXT NOT NULL DEFAULT '',
	evidence_base64    TEXT NOT NULL DEFAULT '',
	evidence_file_name TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id             TEXT PRIMARY KEY,
	target_user_id INTEGER NOT NULL,
	from_user_id   INTEGER NOT NULL,
	message        TEXT NOT NULL,
	task_id        INTEGER NOT NULL,
	task_title     TEXT NOT NULL DEFAULT '',
	is_read        INTEGER NOT NULL DEFAULT 0 CHECK(is_read IN (0, 1)),
	created_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_accountable ON tasks(accountable_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_task_parties_task ON task_parties(task_id);
CREATE INDEX IF NOT EXISTS idx_task_updates_task ON task_updates(task_id, created_at);
CREATE INDEX IF NOT EXISTS idx_notifications_target ON notifications(target_user_id, created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
