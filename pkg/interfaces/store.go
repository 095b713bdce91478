package interfaces

import (
	"context"

	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

// RecordStore defines the interface for the local record store. It is a
// cache and off-chain payload store; it is never authoritative for
// authorization when the remote ledger disagrees.
type RecordStore interface {
	// Patient profiles, keyed by wallet hash
	PutPatientProfile(ctx context.Context, walletAddress string, profile *types.PatientProfile) (string, error)
	GetPatientProfile(ctx context.Context, walletAddress string) (*types.PatientProfile, error)
	HasPatientProfile(ctx context.Context, walletAddress string) (bool, error)

	// Doctor profiles, keyed by wallet hash
	PutDoctorProfile(ctx context.Context, walletAddress string, profile *types.DoctorProfile) (string, error)
	GetDoctorProfile(ctx context.Context, walletAddress string) (*types.DoctorProfile, error)
	HasDoctorProfile(ctx context.Context, walletAddress string) (bool, error)

	// Health records, append-only
	PutRecord(ctx context.Context, patientAddress string, record *types.HealthRecord) (string, error)
	ListRecords(ctx context.Context, patientAddress string) ([]*types.HealthRecord, error)

	// Authorization grants, keyed by hash(patient)+"_"+hash(doctor)
	PutGrant(ctx context.Context, patientAddress, doctorAddress string, permissions []types.Permission, ledgerTxID string) (*types.AuthorizationGrant, error)
	GetGrant(ctx context.Context, patientAddress, doctorAddress string) (*types.AuthorizationGrant, error)
	IsGranted(ctx context.Context, patientAddress, doctorAddress string) (bool, error)
	RevokeGrant(ctx context.Context, patientAddress, doctorAddress string) error
	ConfirmGrant(ctx context.Context, patientAddress, doctorAddress string) error
	ListPendingGrants(ctx context.Context) ([]*types.AuthorizationGrant, error)

	// Hash-keyed grant mutations for the reconciliation sweep, which only
	// has the stored hashes (addresses cannot be recovered from them)
	ConfirmGrantByHash(ctx context.Context, patientHash, doctorHash string) error
	RevokeGrantByHash(ctx context.Context, patientHash, doctorHash string) error
}
