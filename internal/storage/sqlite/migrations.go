package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database.
// These run on startup to ensure tables exist. Username and email uniqueness
// is case-insensitive, enforced with LOWER() expression indexes.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    full_name TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'user',
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS agents (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL,
    email TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_agents_username ON agents(LOWER(username));
CREATE UNIQUE INDEX IF NOT EXISTS idx_agents_email ON agents(LOWER(email));

CREATE TABLE IF NOT EXISTS installments (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    amount REAL NOT NULL,
    date TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'pending',
    owner_id TEXT NOT NULL,
    agent_name TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_installments_owner ON installments(owner_id);

CREATE TABLE IF NOT EXISTS admin_amounts (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL,
    amount REAL NOT NULL,
    wasool_amount REAL NOT NULL,
    bakaya_amount REAL NOT NULL,
    date TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS agent_amounts (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL,
    amount REAL NOT NULL,
    wasool_amount REAL NOT NULL,
    bakaya_amount REAL NOT NULL,
    date TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_admin_amounts_created_by ON admin_amounts(created_by);
CREATE INDEX IF NOT EXISTS idx_agent_amounts_created_by ON agent_amounts(created_by);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
