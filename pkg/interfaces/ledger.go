package interfaces

import (
	"context"

	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

// LedgerClient defines the interface to the remote contract ledger, the
// authoritative source of truth for tokens and grants. State-changing
// calls return a TransactionHandle whose final outcome must be polled.
type LedgerClient interface {
	// State-changing operations
	MintAccessToken(ctx context.Context, walletAddress string) (*types.TransactionHandle, error)
	GrantAccess(ctx context.Context, patientAddress, doctorAddress string, tokenID int64, permissions []types.Permission) (*types.TransactionHandle, error)
	RevokeAccess(ctx context.Context, patientAddress, doctorAddress string) (*types.TransactionHandle, error)
	AssignRole(ctx context.Context, walletAddress string, role types.Role) (*types.TransactionHandle, error)

	// Read-only operations, safe to call frequently
	HasAccessToken(ctx context.Context, walletAddress string) (bool, error)
	GetAccessTokenID(ctx context.Context, walletAddress string) (int64, bool, error)
	HasAccess(ctx context.Context, patientAddress, doctorAddress string) (bool, error)

	// GetTransactionStatus resolves the current state of a submitted
	// transaction: pending, confirmed, or rejected.
	GetTransactionStatus(ctx context.Context, txID string) (types.TxStatus, error)
}

// ConfirmationWatcher polls the ledger until a submitted transaction's
// expected post-condition is observed or the poll window elapses.
type ConfirmationWatcher interface {
	// WaitForCondition polls check on the configured interval until it
	// returns true, the attempt budget is exhausted, or ctx is done.
	WaitForCondition(ctx context.Context, txID string, check func(context.Context) (bool, error)) (types.TxStatus, error)
}
