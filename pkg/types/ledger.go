package types

import "time"

// TxStatus models the lifecycle of a submitted ledger transaction:
// Submitted -> Pending (in mempool) -> Confirmed | Rejected.
type TxStatus string

const (
	TxStatusSubmitted TxStatus = "submitted"
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusRejected  TxStatus = "rejected"
)

// Terminal reports whether the status is a final transaction state
func (s TxStatus) Terminal() bool {
	return s == TxStatusConfirmed || s == TxStatusRejected
}

// TransactionHandle identifies a state-changing contract call whose final
// outcome must be polled, not assumed from the submission response.
type TransactionHandle struct {
	TxID        string    `json:"tx_id"`
	Contract    string    `json:"contract"`
	Function    string    `json:"function"`
	Status      TxStatus  `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	ExplorerURL string    `json:"explorer_url,omitempty"`
}

// AccessToken is the at-most-one-per-identity credential minted on the
// ledger. A patient must hold one before granting doctor access.
type AccessToken struct {
	TokenID int64  `json:"token_id"`
	Owner   string `json:"owner"`
	Active  bool   `json:"active"`
}

// Role is the on-ledger role of an identity
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// Outcome is the user-visible result of a mutating authorization action.
// Every such action reports exactly one of these.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeDenied    Outcome = "denied"
	OutcomeFailed    Outcome = "failed"
)

// AccessDecision is the result of an authorization check. Source records
// whether the answer came from the authoritative ledger or from the local
// cache of last resort.
type AccessDecision struct {
	Allowed bool           `json:"allowed"`
	Source  DecisionSource `json:"source"`
}

// DecisionSource identifies which store answered an access check
type DecisionSource string

const (
	DecisionSourceSelf   DecisionSource = "self"
	DecisionSourceLedger DecisionSource = "ledger"
	// DecisionSourceLocalCache answers are unauthoritative: the cache can
	// be stale or never synchronized with the ledger.
	DecisionSourceLocalCache DecisionSource = "local_cache"
)
