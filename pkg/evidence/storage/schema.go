package storage

// SchemaVersion is the current evidence schema version.
const SchemaVersion = 1

// Schema creates the evidence tables. It only uses types and syntax both
// SQLite and PostgreSQL accept. Times are stored as Unix nanoseconds so
// every driver round-trips them the same way.
const Schema = `
CREATE TABLE IF NOT EXISTS evidence (
    id TEXT PRIMARY KEY,
    recorded_at BIGINT NOT NULL,
    source TEXT NOT NULL,
    version TEXT NOT NULL,

    rule_set TEXT NOT NULL,
    rule_name TEXT NOT NULL,
    action TEXT NOT NULL,
    matched INTEGER NOT NULL,
    match_group INTEGER NOT NULL,

    message_id BIGINT NOT NULL,
    chat_id BIGINT NOT NULL,
    chat_type TEXT NOT NULL,
    from_id BIGINT NOT NULL,
    text_hash TEXT NOT NULL,

    duration_us BIGINT NOT NULL,
    error TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evidence_recorded_at ON evidence(recorded_at);
CREATE INDEX IF NOT EXISTS idx_evidence_rule ON evidence(rule_set, rule_name);
CREATE INDEX IF NOT EXISTS idx_evidence_chat_id ON evidence(chat_id);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `INSERT INTO schema_version (version, applied_at) VALUES (?, ?) ON CONFLICT (version) DO NOTHING`

// GetSchemaVersion reads the newest applied schema version.
const GetSchemaVersion = `SELECT version FROM schema_version ORDER BY version DESC LIMIT 1`

const columns = `id, recorded_at, source, version, rule_set, rule_name, action, matched, match_group,
	message_id, chat_id, chat_type, from_id, text_hash, duration_us, error`
