package types

import "time"

// PatientProfile holds off-chain patient metadata, keyed by wallet hash.
// Only the owning identity may write it.
type PatientProfile struct {
	WalletHash       string    `json:"wallet_hash"`
	Name             string    `json:"name"`
	Age              int       `json:"age"`
	BloodType        string    `json:"blood_type"`
	Allergies        string    `json:"allergies"`
	EmergencyContact string    `json:"emergency_contact"`
	MedicalHistory   string    `json:"medical_history"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DoctorProfile holds off-chain doctor credential metadata
type DoctorProfile struct {
	WalletHash     string    `json:"wallet_hash"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
	LicenseNumber  string    `json:"license_number"`
	Hospital       string    `json:"hospital"`
	Experience     int       `json:"experience"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HealthRecord is an opaque, append-only payload associated with a
// patient. There is no update or delete path.
type HealthRecord struct {
	ID                string    `json:"id"`
	PatientWalletHash string    `json:"patient_wallet_hash"`
	DoctorWalletHash  string    `json:"doctor_wallet_hash"`
	RecordType        string    `json:"record_type"`
	Description       string    `json:"description"`
	Data              string    `json:"data"`
	CreatedAt         time.Time `json:"created_at"`
}

// Permission names an action a grant allows on a patient's records
type Permission string

const (
	PermissionRead   Permission = "read"
	PermissionWrite  Permission = "write"
	PermissionDelete Permission = "delete"
)

// AuthorizationGrant relates a patient to a doctor. The (patient, doctor)
// pair is unique; re-granting updates the existing row. Confirmed stays
// false until the matching ledger transaction is observed confirmed, so a
// locally visible grant is never mistaken for ledger truth.
type AuthorizationGrant struct {
	ID                string       `json:"id"`
	PatientWalletHash string       `json:"patient_wallet_hash"`
	DoctorWalletHash  string       `json:"doctor_wallet_hash"`
	Permissions       []Permission `json:"permissions"`
	Active            bool         `json:"active"`
	Confirmed         bool         `json:"confirmed"`
	LedgerTxID        string       `json:"ledger_tx_id,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
	// ExpiresAt is stored but deliberately not evaluated in the access
	// decision. Expiry semantics are an open product decision.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// HasPermission reports whether the grant carries the given permission
func (g *AuthorizationGrant) HasPermission(p Permission) bool {
	for _, perm := range g.Permissions {
		if perm == p {
			return true
		}
	}
	return false
}
