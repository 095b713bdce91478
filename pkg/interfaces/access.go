package interfaces

import (
	"context"

	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

// AccessService defines the authorization reconciler. It is the only
// component that makes authorization decisions and the only one allowed
// to mutate both stores for a given operation.
type AccessService interface {
	// CheckAccess decides whether requester may read patient's records.
	// Denial is a legitimate outcome, never an error.
	CheckAccess(ctx context.Context, patientAddress, requesterAddress string) (*types.AccessDecision, error)

	// Mint mints the patient's access token on the ledger
	Mint(ctx context.Context, patientAddress string) (*GrantResult, error)

	// Grant authorizes a doctor for a patient's records
	Grant(ctx context.Context, patientAddress, doctorAddress string, permissions []types.Permission) (*GrantResult, error)

	// Revoke withdraws a doctor's authorization
	Revoke(ctx context.Context, patientAddress, doctorAddress string) (*GrantResult, error)

	// TokenStatus reports the patient's on-ledger token state
	TokenStatus(ctx context.Context, patientAddress string) (*types.AccessToken, error)
}

// GrantResult is the tagged result of a mutating authorization action
type GrantResult struct {
	Outcome     types.Outcome            `json:"outcome"`
	Transaction *types.TransactionHandle `json:"transaction,omitempty"`
	Message     string                   `json:"message,omitempty"`
}
