// Package postgres is the durable storage adapter (spec §4.6, §5):
// pgx/v5 + pgxpool for the location graph and the transactional
// idempotency registry, grounded on join-service's repository.go
// (lock-ordering, ON CONFLICT ... RETURNING idempotency pattern) and
// processed_messages.go (the ProcessOnce transactional fence). The
// realm repository instead follows event-service's database/sql +
// lib/pq shape, since realms/within-edges are read far more than
// written and don't need pgx's pooled-transaction machinery.
package postgres

// Schema is the DDL this adapter expects, kept here as the single
// source of truth for column shapes. cmd/worldcore executes it at
// startup; every statement is CREATE TABLE IF NOT EXISTS.
const Schema = `
CREATE TABLE IF NOT EXISTS locations (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL DEFAULT '',
	description       TEXT NOT NULL DEFAULT '',
	terrain           TEXT NOT NULL DEFAULT '',
	tags              TEXT[] NOT NULL DEFAULT '{}',
	exit_pending      JSONB NOT NULL DEFAULT '{}',
	version           BIGINT NOT NULL DEFAULT 1,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS exits (
	from_id             TEXT NOT NULL REFERENCES locations(id),
	direction           TEXT NOT NULL,
	to_id               TEXT NOT NULL REFERENCES locations(id),
	travel_duration_ms  BIGINT,
	PRIMARY KEY (from_id, direction)
);

CREATE TABLE IF NOT EXISTS description_layers (
	id           TEXT PRIMARY KEY,
	location_id  TEXT NOT NULL REFERENCES locations(id),
	layer_type   TEXT NOT NULL,
	content      TEXT NOT NULL,
	priority     INT NOT NULL DEFAULT 0,
	attributes   JSONB NOT NULL DEFAULT '{}',
	authored_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS realms (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	realm_type      TEXT NOT NULL,
	scope           TEXT NOT NULL,
	narrative_tags  TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS realm_within_edges (
	location_id  TEXT NOT NULL REFERENCES locations(id),
	realm_id     TEXT NOT NULL REFERENCES realms(id),
	PRIMARY KEY (location_id, realm_id)
);

CREATE TABLE IF NOT EXISTS processed_events (
	idempotency_key  TEXT PRIMARY KEY,
	event_id         TEXT NOT NULL,
	processed_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS dead_letters (
	record_id                 TEXT PRIMARY KEY,
	error_code                TEXT NOT NULL,
	retry_count               INT NOT NULL DEFAULT 0,
	first_attempt_timestamp   TIMESTAMPTZ NOT NULL,
	original_correlation_id   TEXT NOT NULL DEFAULT '',
	failure_reason            TEXT NOT NULL DEFAULT '',
	final_error               TEXT NOT NULL DEFAULT '',
	original_payload          BYTEA
);
`
