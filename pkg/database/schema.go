package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the local record store schema: patients, doctors,
// health_records, doctor_authorizations, all keyed by wallet hash or
// composite hash key.
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.Info("Creating local record store schema")

	tables := []string{
		createPatientsTable,
		createDoctorsTable,
		createHealthRecordsTable,
		createDoctorAuthorizationsTable,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		createHealthRecordsIndexes,
		createDoctorAuthorizationsIndexes,
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	db.logger.Info("Local record store schema created successfully")
	return nil
}

const createPatientsTable = `
CREATE TABLE IF NOT EXISTS patients (
	wallet_hash       VARCHAR(64) PRIMARY KEY,
	name              TEXT NOT NULL,
	age               INTEGER NOT NULL DEFAULT 0,
	blood_type        TEXT NOT NULL DEFAULT '',
	allergies         TEXT NOT NULL DEFAULT '',
	emergency_contact TEXT NOT NULL DEFAULT '',
	medical_history   TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);`

const createDoctorsTable = `
CREATE TABLE IF NOT EXISTS doctors (
	wallet_hash    VARCHAR(64) PRIMARY KEY,
	name           TEXT NOT NULL,
	specialization TEXT NOT NULL DEFAULT '',
	license_number TEXT NOT NULL DEFAULT '',
	hospital       TEXT NOT NULL DEFAULT '',
	experience     INTEGER NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);`

const createHealthRecordsTable = `
CREATE TABLE IF NOT EXISTS health_records (
	id                  VARCHAR(128) PRIMARY KEY,
	patient_wallet_hash VARCHAR(64) NOT NULL,
	doctor_wallet_hash  VARCHAR(64) NOT NULL DEFAULT '',
	record_type         TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	data                TEXT NOT NULL,
	inserted_seq        BIGSERIAL,
	created_at          TIMESTAMPTZ NOT NULL
);`

const createDoctorAuthorizationsTable = `
CREATE TABLE IF NOT EXISTS doctor_authorizations (
	id                  UUID PRIMARY KEY,
	grant_key           VARCHAR(129) NOT NULL UNIQUE,
	patient_wallet_hash VARCHAR(64) NOT NULL,
	doctor_wallet_hash  VARCHAR(64) NOT NULL,
	permissions         TEXT[] NOT NULL,
	is_active           BOOLEAN NOT NULL DEFAULT TRUE,
	confirmed           BOOLEAN NOT NULL DEFAULT FALSE,
	ledger_tx_id        TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL,
	expires_at          TIMESTAMPTZ
);`

const createHealthRecordsIndexes = `
CREATE INDEX IF NOT EXISTS idx_health_records_by_patient ON health_records(patient_wallet_hash);
CREATE INDEX IF NOT EXISTS idx_health_records_by_doctor ON health_records(doctor_wallet_hash);
CREATE INDEX IF NOT EXISTS idx_health_records_by_type ON health_records(record_type);`

const createDoctorAuthorizationsIndexes = `
CREATE INDEX IF NOT EXISTS idx_doctor_auth_by_patient ON doctor_authorizations(patient_wallet_hash);
CREATE INDEX IF NOT EXISTS idx_doctor_auth_by_doctor ON doctor_authorizations(doctor_wallet_hash);
CREATE INDEX IF NOT EXISTS idx_doctor_auth_by_active ON doctor_authorizations(is_active);`
