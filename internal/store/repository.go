package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/emrecanguldogan/HealthChain/pkg/database"
	"github.com/emrecanguldogan/HealthChain/pkg/hashing"
	"github.com/emrecanguldogan/HealthChain/pkg/logger"
	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

// Repository implements the local record store over Postgres. Every
// failure of the storage engine surfaces as a StorageUnavailable error so
// callers can report "authorization indeterminate" instead of a denial.
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new local record store repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

// PutPatientProfile upserts a patient profile keyed by wallet hash and
// returns the storage key.
func (r *Repository) PutPatientProfile(ctx context.Context, walletAddress string, profile *types.PatientProfile) (string, error) {
	walletHash := hashing.WalletHash(walletAddress)
	now := time.Now()

	query := `
		INSERT INTO patients (wallet_hash, name, age, blood_type, allergies,
			emergency_contact, medical_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (wallet_hash) DO UPDATE SET
			name = EXCLUDED.name,
			age = EXCLUDED.age,
			blood_type = EXCLUDED.blood_type,
			allergies = EXCLUDED.allergies,
			emergency_contact = EXCLUDED.emergency_contact,
			medical_history = EXCLUDED.medical_history,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		walletHash,
		profile.Name,
		profile.Age,
		profile.BloodType,
		profile.Allergies,
		profile.EmergencyContact,
		profile.MedicalHistory,
		now,
	)
	if err != nil {
		r.logger.StorageOperation(ctx, "put", "patients", false, map[string]interface{}{"error": err.Error()})
		return "", types.NewStorageError("failed to store patient profile", err)
	}

	r.logger.StorageOperation(ctx, "put", "patients", true, map[string]interface{}{"wallet_hash": walletHash})
	return walletHash, nil
}

// GetPatientProfile retrieves a patient profile by wallet address
func (r *Repository) GetPatientProfile(ctx context.Context, walletAddress string) (*types.PatientProfile, error) {
	walletHash := hashing.WalletHash(walletAddress)

	query := `
		SELECT wallet_hash, name, age, blood_type, allergies,
			emergency_contact, medical_history, created_at, updated_at
		FROM patients
		WHERE wallet_hash = $1`

	var profile types.PatientProfile
	err := r.db.QueryRowContext(ctx, query, walletHash).Scan(
		&profile.WalletHash,
		&profile.Name,
		&profile.Age,
		&profile.BloodType,
		&profile.Allergies,
		&profile.EmergencyContact,
		&profile.MedicalHistory,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("PATIENT_NOT_FOUND", "Patient profile not found")
		}
		return nil, types.NewStorageError("failed to get patient profile", err)
	}

	return &profile, nil
}

// HasPatientProfile reports whether a patient profile exists
func (r *Repository) HasPatientProfile(ctx context.Context, walletAddress string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM patients WHERE wallet_hash = $1`, hashing.WalletHash(walletAddress))
}

// PutDoctorProfile upserts a doctor profile keyed by wallet hash
func (r *Repository) PutDoctorProfile(ctx context.Context, walletAddress string, profile *types.DoctorProfile) (string, error) {
	walletHash := hashing.WalletHash(walletAddress)
	now := time.Now()

	query := `
		INSERT INTO doctors (wallet_hash, name, specialization, license_number,
			hospital, experience, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (wallet_hash) DO UPDATE SET
			name = EXCLUDED.name,
			specialization = EXCLUDED.specialization,
			license_number = EXCLUDED.license_number,
			hospital = EXCLUDED.hospital,
			experience = EXCLUDED.experience,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		walletHash,
		profile.Name,
		profile.Specialization,
		profile.LicenseNumber,
		profile.Hospital,
		profile.Experience,
		now,
	)
	if err != nil {
		r.logger.StorageOperation(ctx, "put", "doctors", false, map[string]interface{}{"error": err.Error()})
		return "", types.NewStorageError("failed to store doctor profile", err)
	}

	r.logger.StorageOperation(ctx, "put", "doctors", true, map[string]interface{}{"wallet_hash": walletHash})
	return walletHash, nil
}

// GetDoctorProfile retrieves a doctor profile by wallet address
func (r *Repository) GetDoctorProfile(ctx context.Context, walletAddress string) (*types.DoctorProfile, error) {
	walletHash := hashing.WalletHash(walletAddress)

	query := `
		SELECT wallet_hash, name, specialization, license_number,
			hospital, experience, created_at, updated_at
		FROM doctors
		WHERE wallet_hash = $1`

	var profile types.DoctorProfile
	err := r.db.QueryRowContext(ctx, query, walletHash).Scan(
		&profile.WalletHash,
		&profile.Name,
		&profile.Specialization,
		&profile.LicenseNumber,
		&profile.Hospital,
		&profile.Experience,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("DOCTOR_NOT_FOUND", "Doctor profile not found")
		}
		return nil, types.NewStorageError("failed to get doctor profile", err)
	}

	return &profile, nil
}

// HasDoctorProfile reports whether a doctor profile exists
func (r *Repository) HasDoctorProfile(ctx context.Context, walletAddress string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM doctors WHERE wallet_hash = $1`, hashing.WalletHash(walletAddress))
}

// PutRecord appends a health record for a patient and returns the record
// ID, hash(patient)+"_"+timestamp.
func (r *Repository) PutRecord(ctx context.Context, patientAddress string, record *types.HealthRecord) (string, error) {
	now := time.Now()
	recordID := hashing.RecordID(patientAddress, now)

	query := `
		INSERT INTO health_records (id, patient_wallet_hash, doctor_wallet_hash,
			record_type, description, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		recordID,
		hashing.WalletHash(patientAddress),
		record.DoctorWalletHash,
		record.RecordType,
		record.Description,
		record.Data,
		now,
	)
	if err != nil {
		r.logger.StorageOperation(ctx, "put", "health_records", false, map[string]interface{}{"error": err.Error()})
		return "", types.NewStorageError("failed to store health record", err)
	}

	r.logger.StorageOperation(ctx, "put", "health_records", true, map[string]interface{}{"record_id": recordID})
	return recordID, nil
}

// ListRecords returns a patient's health records in insertion order
func (r *Repository) ListRecords(ctx context.Context, patientAddress string) ([]*types.HealthRecord, error) {
	query := `
		SELECT id, patient_wallet_hash, doctor_wallet_hash,
			record_type, description, data, created_at
		FROM health_records
		WHERE patient_wallet_hash = $1
		ORDER BY inserted_seq`

	rows, err := r.db.QueryContext(ctx, query, hashing.WalletHash(patientAddress))
	if err != nil {
		return nil, types.NewStorageError("failed to list health records", err)
	}
	defer rows.Close()

	var records []*types.HealthRecord
	for rows.Next() {
		var record types.HealthRecord
		if err := rows.Scan(
			&record.ID,
			&record.PatientWalletHash,
			&record.DoctorWalletHash,
			&record.RecordType,
			&record.Description,
			&record.Data,
			&record.CreatedAt,
		); err != nil {
			return nil, types.NewStorageError("failed to scan health record", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStorageError("failed to iterate health records", err)
	}

	return records, nil
}

// PutGrant upserts the authorization grant for (patient, doctor). The
// pair is unique; re-granting replaces permissions, resets active=true
// and restarts ledger confirmation tracking.
func (r *Repository) PutGrant(ctx context.Context, patientAddress, doctorAddress string, permissions []types.Permission, ledgerTxID string) (*types.AuthorizationGrant, error) {
	now := time.Now()
	grant := &types.AuthorizationGrant{
		ID:                uuid.New().String(),
		PatientWalletHash: hashing.WalletHash(patientAddress),
		DoctorWalletHash:  hashing.WalletHash(doctorAddress),
		Permissions:       permissions,
		Active:            true,
		Confirmed:         false,
		LedgerTxID:        ledgerTxID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	perms := make([]string, len(permissions))
	for i, p := range permissions {
		perms[i] = string(p)
	}

	query := `
		INSERT INTO doctor_authorizations (id, grant_key, patient_wallet_hash,
			doctor_wallet_hash, permissions, is_active, confirmed, ledger_tx_id,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, FALSE, $6, $7, $7)
		ON CONFLICT (grant_key) DO UPDATE SET
			permissions = EXCLUDED.permissions,
			is_active = TRUE,
			confirmed = FALSE,
			ledger_tx_id = EXCLUDED.ledger_tx_id,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		grant.ID,
		hashing.GrantKey(patientAddress, doctorAddress),
		grant.PatientWalletHash,
		grant.DoctorWalletHash,
		pq.Array(perms),
		ledgerTxID,
		now,
	)
	if err != nil {
		r.logger.StorageOperation(ctx, "put", "doctor_authorizations", false, map[string]interface{}{"error": err.Error()})
		return nil, types.NewStorageError("failed to store authorization grant", err)
	}

	r.logger.StorageOperation(ctx, "put", "doctor_authorizations", true, map[string]interface{}{
		"grant_key": hashing.GrantKey(patientAddress, doctorAddress),
		"tx_id":     ledgerTxID,
	})
	return grant, nil
}

// GetGrant retrieves the grant for (patient, doctor)
func (r *Repository) GetGrant(ctx context.Context, patientAddress, doctorAddress string) (*types.AuthorizationGrant, error) {
	query := `
		SELECT id, patient_wallet_hash, doctor_wallet_hash, permissions,
			is_active, confirmed, ledger_tx_id, created_at, updated_at, expires_at
		FROM doctor_authorizations
		WHERE grant_key = $1`

	grant, err := r.scanGrant(r.db.QueryRowContext(ctx, query, hashing.GrantKey(patientAddress, doctorAddress)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("GRANT_NOT_FOUND", "Authorization grant not found")
		}
		return nil, types.NewStorageError("failed to get authorization grant", err)
	}

	return grant, nil
}

// IsGranted reports whether an active grant exists for (patient, doctor).
// Expiry is deliberately not evaluated here.
func (r *Repository) IsGranted(ctx context.Context, patientAddress, doctorAddress string) (bool, error) {
	return r.exists(ctx,
		`SELECT 1 FROM doctor_authorizations WHERE grant_key = $1 AND is_active = TRUE`,
		hashing.GrantKey(patientAddress, doctorAddress),
	)
}

// RevokeGrant deactivates the grant for (patient, doctor). Revoking a
// grant that does not exist is a no-op.
func (r *Repository) RevokeGrant(ctx context.Context, patientAddress, doctorAddress string) error {
	return r.RevokeGrantByHash(ctx, hashing.WalletHash(patientAddress), hashing.WalletHash(doctorAddress))
}

// RevokeGrantByHash deactivates a grant addressed by stored hashes
func (r *Repository) RevokeGrantByHash(ctx context.Context, patientHash, doctorHash string) error {
	query := `
		UPDATE doctor_authorizations
		SET is_active = FALSE, updated_at = $2
		WHERE grant_key = $1`

	_, err := r.db.ExecContext(ctx, query, patientHash+"_"+doctorHash, time.Now())
	if err != nil {
		r.logger.StorageOperation(ctx, "revoke", "doctor_authorizations", false, map[string]interface{}{"error": err.Error()})
		return types.NewStorageError("failed to revoke authorization grant", err)
	}

	r.logger.StorageOperation(ctx, "revoke", "doctor_authorizations", true, nil)
	return nil
}

// ConfirmGrant marks the grant's ledger transaction as confirmed
func (r *Repository) ConfirmGrant(ctx context.Context, patientAddress, doctorAddress string) error {
	return r.ConfirmGrantByHash(ctx, hashing.WalletHash(patientAddress), hashing.WalletHash(doctorAddress))
}

// ConfirmGrantByHash marks a grant confirmed, addressed by stored hashes
func (r *Repository) ConfirmGrantByHash(ctx context.Context, patientHash, doctorHash string) error {
	query := `
		UPDATE doctor_authorizations
		SET confirmed = TRUE, updated_at = $2
		WHERE grant_key = $1`

	_, err := r.db.ExecContext(ctx, query, patientHash+"_"+doctorHash, time.Now())
	if err != nil {
		return types.NewStorageError("failed to confirm authorization grant", err)
	}

	return nil
}

// ListPendingGrants returns active grants still awaiting ledger
// confirmation, for the reconciliation sweep.
func (r *Repository) ListPendingGrants(ctx context.Context) ([]*types.AuthorizationGrant, error) {
	query := `
		SELECT id, patient_wallet_hash, doctor_wallet_hash, permissions,
			is_active, confirmed, ledger_tx_id, created_at, updated_at, expires_at
		FROM doctor_authorizations
		WHERE is_active = TRUE AND confirmed = FALSE`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, types.NewStorageError("failed to list pending grants", err)
	}
	defer rows.Close()

	var grants []*types.AuthorizationGrant
	for rows.Next() {
		grant, err := r.scanGrant(rows)
		if err != nil {
			return nil, types.NewStorageError("failed to scan pending grant", err)
		}
		grants = append(grants, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStorageError("failed to iterate pending grants", err)
	}

	return grants, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanGrant(row rowScanner) (*types.AuthorizationGrant, error) {
	var grant types.AuthorizationGrant
	var perms pq.StringArray
	var expiresAt sql.NullTime

	if err := row.Scan(
		&grant.ID,
		&grant.PatientWalletHash,
		&grant.DoctorWalletHash,
		&perms,
		&grant.Active,
		&grant.Confirmed,
		&grant.LedgerTxID,
		&grant.CreatedAt,
		&grant.UpdatedAt,
		&expiresAt,
	); err != nil {
		return nil, err
	}

	grant.Permissions = make([]types.Permission, len(perms))
	for i, p := range perms {
		grant.Permissions[i] = types.Permission(p)
	}
	if expiresAt.Valid {
		grant.ExpiresAt = &expiresAt.Time
	}

	return &grant, nil
}

func (r *Repository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, types.NewStorageError("failed to query local record store", err)
	}
	return true, nil
}
