package reconciler

import (
	"context"
	"time"

	"github.com/emrecanguldogan/HealthChain/pkg/interfaces"
	"github.com/emrecanguldogan/HealthChain/pkg/logger"
	"github.com/emrecanguldogan/HealthChain/pkg/monitoring"
	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

// Service is the authorization reconciler. It is the only component that
// makes authorization decisions and the only one that mutates both the
// ledger and the local record store for a given operation.
//
// Ordering policy: state changes go to the ledger first; the local mirror
// is written only after the ledger accepted the submission, flagged
// confirmed=false until polling observes the post-condition. A cancelled
// or rejected submission therefore never leaves partial local state.
type Service struct {
	store   interfaces.RecordStore
	ledger  interfaces.LedgerClient
	watcher interfaces.ConfirmationWatcher
	logger  *logger.Logger
}

// NewService creates a new reconciler service
func NewService(store interfaces.RecordStore, ledger interfaces.LedgerClient, watcher interfaces.ConfirmationWatcher, log *logger.Logger) *Service {
	return &Service{
		store:   store,
		ledger:  ledger,
		watcher: watcher,
		logger:  log,
	}
}

// CheckAccess decides whether requester may read patient's records.
// Self-access is always allowed without further checks. Otherwise the
// ledger answers authoritatively; only when the ledger is unreachable
// does the local cache answer, and that answer is flagged
// unauthoritative. Denial is a legitimate outcome, never an error.
func (s *Service) CheckAccess(ctx context.Context, patientAddress, requesterAddress string) (*types.AccessDecision, error) {
	if requesterAddress == patientAddress {
		decision := &types.AccessDecision{Allowed: true, Source: types.DecisionSourceSelf}
		monitoring.RecordAccessDecision(true, string(types.DecisionSourceSelf))
		return decision, nil
	}

	allowed, err := s.ledger.HasAccess(ctx, patientAddress, requesterAddress)
	if err == nil {
		decision := &types.AccessDecision{Allowed: allowed, Source: types.DecisionSourceLedger}
		monitoring.RecordAccessDecision(allowed, string(types.DecisionSourceLedger))
		s.logger.AccessDecision(ctx, patientAddress, requesterAddress, allowed, string(types.DecisionSourceLedger))
		return decision, nil
	}

	s.logger.WithError(err).Warn("Ledger unreachable for access check, falling back to local cache")

	granted, storeErr := s.store.IsGranted(ctx, patientAddress, requesterAddress)
	if storeErr != nil {
		// Both stores failed: the state is unknown, not denied
		return nil, types.NewLedgerError("authorization indeterminate: ledger and local store both unavailable", err)
	}

	decision := &types.AccessDecision{Allowed: granted, Source: types.DecisionSourceLocalCache}
	monitoring.RecordAccessDecision(granted, string(types.DecisionSourceLocalCache))
	s.logger.AccessDecision(ctx, patientAddress, requesterAddress, granted, string(types.DecisionSourceLocalCache))
	return decision, nil
}

// Mint mints the patient's access token. The contract enforces
// at-most-one-token-per-identity; a second mint for the same identity is
// rejected without creating a second token.
func (s *Service) Mint(ctx context.Context, patientAddress string) (*interfaces.GrantResult, error) {
	hasToken, err := s.ledger.HasAccessToken(ctx, patientAddress)
	if err != nil {
		monitoring.RecordGrantOperation("mint", string(types.OutcomeFailed))
		return &interfaces.GrantResult{Outcome: types.OutcomeFailed}, err
	}
	if hasToken {
		monitoring.RecordGrantOperation("mint", string(types.OutcomeDenied))
		return &interfaces.GrantResult{Outcome: types.OutcomeDenied}, &types.AccessError{
			Type:    types.ErrorTypeConflict,
			Code:    types.ErrCodeAlreadyHasToken,
			Message: "identity already owns an access token",
		}
	}

	handle, err := s.ledger.MintAccessToken(ctx, patientAddress)
	if err != nil {
		monitoring.RecordGrantOperation("mint", string(types.OutcomeFailed))
		return &interfaces.GrantResult{Outcome: types.OutcomeFailed}, err
	}

	monitoring.RecordGrantOperation("mint", string(types.OutcomePending))
	return &interfaces.GrantResult{
		Outcome:     types.OutcomePending,
		Transaction: handle,
		Message:     "mint submitted; poll token status until confirmed",
	}, nil
}

// Grant authorizes a doctor for a patient's records. The patient must
// hold an access token. Re-granting over an active confirmed grant is
// rejected as AlreadyAuthorized; re-granting over a revoked or
// still-unconfirmed grant upserts it.
func (s *Service) Grant(ctx context.Context, patientAddress, doctorAddress string, permissions []types.Permission) (*interfaces.GrantResult, error) {
	if len(permissions) == 0 {
		permissions = []types.Permission{types.PermissionRead}
	}

	tokenID, hasToken, err := s.ledger.GetAccessTokenID(ctx, patientAddress)
	if err != nil {
		monitoring.RecordGrantOperation("grant", string(types.OutcomeFailed))
		return &interfaces.GrantResult{Outcome: types.OutcomeFailed}, err
	}
	if !hasToken {
		monitoring.RecordGrantOperation("grant", string(types.OutcomeDenied))
		return &interfaces.GrantResult{Outcome: types.OutcomeDenied}, &types.AccessError{
			Type:    types.ErrorTypeAuthorization,
			Code:    types.ErrCodeTokenMissing,
			Message: "patient does not own an access token; mint one first",
		}
	}

	existing, err := s.store.GetGrant(ctx, patientAddress, doctorAddress)
	if err != nil {
		if ae, ok := err.(*types.AccessError); !ok || ae.Type != types.ErrorTypeNotFound {
			monitoring.RecordGrantOperation("grant", string(types.OutcomeFailed))
			return &interfaces.GrantResult{Outcome: types.OutcomeFailed}, err
		}
	}
	if existing != nil && existing.Active && existing.Confirmed {
		monitoring.RecordGrantOperation("grant", string(types.OutcomeDenied))
		return &interfaces.GrantResult{Outcome: types.OutcomeDenied}, types.NewConflictError(
			types.ErrCodeAlreadyAuthorized,
			"doctor is already authorized for this patient",
		)
	}

	// Ledger first. If the submission fails or the user cancels signing,
	// nothing was written locally and IsGranted stays false.
	handle, err := s.ledger.GrantAccess(ctx, patientAddress, doctorAddress, tokenID, permissions)
	if err != nil {
		monitoring.RecordGrantOperation("grant", string(types.OutcomeFailed))
		return &interfaces.GrantResult{Outcome: types.OutcomeFailed}, err
	}

	if _, err := s.store.PutGrant(ctx, patientAddress, doctorAddress, permissions, handle.TxID); err != nil {
		// Ledger accepted but the mirror write failed; the reconciliation
		// sweep cannot see this grant, so surface the storage error while
		// reporting the transaction handle for manual follow-up.
		monitoring.RecordStorageError("put_grant")
		monitoring.RecordGrantOperation("grant", string(types.OutcomeFailed))
		return &interfaces.GrantResult{Outcome: types.OutcomeFailed, Transaction: handle}, err
	}

	s.watchGrantConfirmation(patientAddress, doctorAddress, handle.TxID)

	monitoring.RecordGrantOperation("grant", string(types.OutcomePending))
	return &interfaces.GrantResult{
		Outcome:     types.OutcomePending,
		Transaction: handle,
		Message:     "grant submitted; pending ledger confirmation",
	}, nil
}

// Revoke withdraws a doctor's authorization, ledger first, then the
// local mirror.
func (s *Service) Revoke(ctx context.Context, patientAddress, doctorAddress string) (*interfaces.GrantResult, error) {
	handle, err := s.ledger.RevokeAccess(ctx, patientAddress, doctorAddress)
	if err != nil {
		monitoring.RecordGrantOperation("revoke", string(types.OutcomeFailed))
		return &interfaces.GrantResult{Outcome: types.OutcomeFailed}, err
	}

	if err := s.store.RevokeGrant(ctx, patientAddress, doctorAddress); err != nil {
		monitoring.RecordStorageError("revoke_grant")
		monitoring.RecordGrantOperation("revoke", string(types.OutcomeFailed))
		return &interfaces.GrantResult{Outcome: types.OutcomeFailed, Transaction: handle}, err
	}

	monitoring.RecordGrantOperation("revoke", string(types.OutcomePending))
	return &interfaces.GrantResult{
		Outcome:     types.OutcomePending,
		Transaction: handle,
		Message:     "revoke submitted; pending ledger confirmation",
	}, nil
}

// TokenStatus reports the patient's on-ledger token state
func (s *Service) TokenStatus(ctx context.Context, patientAddress string) (*types.AccessToken, error) {
	tokenID, present, err := s.ledger.GetAccessTokenID(ctx, patientAddress)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, types.NewNotFoundError(types.ErrCodeTokenMissing, "identity does not own an access token")
	}

	return &types.AccessToken{
		TokenID: tokenID,
		Owner:   patientAddress,
		Active:  true,
	}, nil
}

// watchGrantConfirmation polls the ledger until the grant's
// post-condition is observed, then flips the local confirmed flag. A
// rejected transaction deactivates the local mirror instead. On timeout
// the grant stays pending for the reconciliation sweep.
func (s *Service) watchGrantConfirmation(patientAddress, doctorAddress, txID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		status, err := s.watcher.WaitForCondition(ctx, txID, func(ctx context.Context) (bool, error) {
			return s.ledger.HasAccess(ctx, patientAddress, doctorAddress)
		})

		switch status {
		case types.TxStatusConfirmed:
			if err := s.store.ConfirmGrant(ctx, patientAddress, doctorAddress); err != nil {
				s.logger.WithError(err).WithField("tx_id", txID).Error("Failed to mark grant confirmed")
			}
		case types.TxStatusRejected:
			if err := s.store.RevokeGrant(ctx, patientAddress, doctorAddress); err != nil {
				s.logger.WithError(err).WithField("tx_id", txID).Error("Failed to roll back rejected grant")
			}
		default:
			s.logger.WithError(err).WithField("tx_id", txID).
				Warn("Grant confirmation window elapsed; reconciliation sweep will retry")
		}
	}()
}
