package store

// schema is the entity-store DDL (component A), embedded as a Go string
// constant the way util/device_db.go embeds its device-identification
// schema. LoadSchema execs this (or sqliteSchema, for the SQLite backend)
// against a fresh database; it is not a migration framework, just enough
// to stand up the tables this package queries.
//
//	Vendor ------< Platform ------< Configuration ------< Machine
//	  |                                                      |
//	  |-----------< Bios                                     |----< Certificate >---- Release
//	  |-----------< Device                                          |
//	                                                                 |---- Report ----  Kernel
//	                                                                        |  \
//	                                                                        |   (Bios)
//	                                                                  Device >-----< (assoc)
const schema = `
CREATE TABLE IF NOT EXISTS vendor (
	id   BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS platform (
	id        BIGSERIAL PRIMARY KEY,
	vendor_id BIGINT NOT NULL REFERENCES vendor(id),
	name      TEXT NOT NULL,
	UNIQUE (vendor_id, name)
);

CREATE TABLE IF NOT EXISTS configuration (
	id          BIGSERIAL PRIMARY KEY,
	platform_id BIGINT NOT NULL REFERENCES platform(id),
	name        TEXT NOT NULL,
	UNIQUE (platform_id, name)
);

CREATE TABLE IF NOT EXISTS machine (
	id               BIGSERIAL PRIMARY KEY,
	configuration_id BIGINT NOT NULL REFERENCES configuration(id),
	canonical_id     TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS release (
	id              BIGSERIAL PRIMARY KEY,
	codename        TEXT NOT NULL,
	release_str     TEXT NOT NULL,
	release_date    DATE,
	supported_until DATE,
	i_version       INTEGER NOT NULL,
	UNIQUE (codename, release_str)
);

CREATE TABLE IF NOT EXISTS certificate (
	id           BIGSERIAL PRIMARY KEY,
	machine_id   BIGINT NOT NULL REFERENCES machine(id),
	release_id   BIGINT NOT NULL REFERENCES release(id),
	name         TEXT NOT NULL UNIQUE,
	created_at   TIMESTAMPTZ,
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS kernel (
	id        BIGSERIAL PRIMARY KEY,
	name      TEXT NOT NULL DEFAULT '',
	version   TEXT NOT NULL,
	signature TEXT NOT NULL DEFAULT '',
	UNIQUE (name, version, signature)
);

CREATE TABLE IF NOT EXISTS bios (
	id                BIGSERIAL PRIMARY KEY,
	vendor_id         BIGINT NOT NULL REFERENCES vendor(id),
	version           TEXT NOT NULL,
	revision          TEXT NOT NULL DEFAULT '',
	firmware_revision TEXT NOT NULL DEFAULT '',
	release_date      DATE,
	UNIQUE (vendor_id, version, revision, firmware_revision)
);

CREATE TABLE IF NOT EXISTS report (
	id             BIGSERIAL PRIMARY KEY,
	certificate_id BIGINT NOT NULL REFERENCES certificate(id),
	kernel_id      BIGINT REFERENCES kernel(id),
	bios_id        BIGINT REFERENCES bios(id),
	architecture   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS device (
	id              BIGSERIAL PRIMARY KEY,
	vendor_id       BIGINT NOT NULL REFERENCES vendor(id),
	identifier      TEXT NOT NULL DEFAULT '',
	name            TEXT NOT NULL,
	subproduct_name TEXT NOT NULL DEFAULT '',
	device_type     TEXT NOT NULL DEFAULT '',
	bus             TEXT NOT NULL DEFAULT '',
	version         TEXT NOT NULL DEFAULT '',
	subsystem       TEXT NOT NULL DEFAULT '',
	category        TEXT NOT NULL,
	codename        TEXT NOT NULL DEFAULT '',
	UNIQUE (vendor_id, name, version, subsystem, bus, category)
);
CREATE INDEX IF NOT EXISTS device_identifier_idx ON device(identifier);

CREATE TABLE IF NOT EXISTS report_device (
	report_id BIGINT NOT NULL REFERENCES report(id),
	device_id BIGINT NOT NULL REFERENCES device(id),
	PRIMARY KEY (report_id, device_id)
);

CREATE TABLE IF NOT EXISTS cpu_id (
	id         BIGSERIAL PRIMARY KEY,
	id_pattern TEXT NOT NULL,
	codename   TEXT NOT NULL,
	UNIQUE (id_pattern, codename)
);
`

// sqliteSchema is the same entity graph translated to SQLite's narrower
// type system (no BIGSERIAL, no TIMESTAMPTZ/DATE distinctions beyond
// TEXT) for the alternate local/dev backend.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS vendor (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS platform (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	vendor_id INTEGER NOT NULL REFERENCES vendor(id),
	name      TEXT NOT NULL,
	UNIQUE (vendor_id, name)
);

CREATE TABLE IF NOT EXISTS configuration (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	platform_id INTEGER NOT NULL REFERENCES platform(id),
	name        TEXT NOT NULL,
	UNIQUE (platform_id, name)
);

CREATE TABLE IF NOT EXISTS machine (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	configuration_id INTEGER NOT NULL REFERENCES configuration(id),
	canonical_id     TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS release (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	codename        TEXT NOT NULL,
	release_str     TEXT NOT NULL,
	release_date    TEXT,
	supported_until TEXT,
	i_version       INTEGER NOT NULL,
	UNIQUE (codename, release_str)
);

CREATE TABLE IF NOT EXISTS certificate (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	machine_id   INTEGER NOT NULL REFERENCES machine(id),
	release_id   INTEGER NOT NULL REFERENCES release(id),
	name         TEXT NOT NULL UNIQUE,
	created_at   TEXT,
	completed_at TEXT
);

CREATE TABLE IF NOT EXISTS kernel (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	name      TEXT NOT NULL DEFAULT '',
	version   TEXT NOT NULL,
	signature TEXT NOT NULL DEFAULT '',
	UNIQUE (name, version, signature)
);

CREATE TABLE IF NOT EXISTS bios (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	vendor_id         INTEGER NOT NULL REFERENCES vendor(id),
	version           TEXT NOT NULL,
	revision          TEXT NOT NULL DEFAULT '',
	firmware_revision TEXT NOT NULL DEFAULT '',
	release_date      TEXT,
	UNIQUE (vendor_id, version, revision, firmware_revision)
);

CREATE TABLE IF NOT EXISTS report (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	certificate_id INTEGER NOT NULL REFERENCES certificate(id),
	kernel_id      INTEGER REFERENCES kernel(id),
	bios_id        INTEGER REFERENCES bios(id),
	architecture   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS device (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	vendor_id       INTEGER NOT NULL REFERENCES vendor(id),
	identifier      TEXT NOT NULL DEFAULT '',
	name            TEXT NOT NULL,
	subproduct_name TEXT NOT NULL DEFAULT '',
	device_type     TEXT NOT NULL DEFAULT '',
	bus             TEXT NOT NULL DEFAULT '',
	version         TEXT NOT NULL DEFAULT '',
	subsystem       TEXT NOT NULL DEFAULT '',
	category        TEXT NOT NULL,
	codename        TEXT NOT NULL DEFAULT '',
	UNIQUE (vendor_id, name, version, subsystem, bus, category)
);
CREATE INDEX IF NOT EXISTS device_identifier_idx ON device(identifier);

CREATE TABLE IF NOT EXISTS report_device (
	report_id INTEGER NOT NULL REFERENCES report(id),
	device_id INTEGER NOT NULL REFERENCES device(id),
	PRIMARY KEY (report_id, device_id)
);

CREATE TABLE IF NOT EXISTS cpu_id (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	id_pattern TEXT NOT NULL,
	codename   TEXT NOT NULL,
	UNIQUE (id_pattern, codename)
);
`
