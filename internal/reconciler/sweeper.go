package reconciler

import (
	"context"
	"time"

	"github.com/emrecanguldogan/HealthChain/pkg/interfaces"
	"github.com/emrecanguldogan/HealthChain/pkg/logger"
	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

// Sweeper periodically reconciles local grants stuck in the unconfirmed
// state, e.g. after a restart killed the per-transaction watcher or a
// confirmation window timed out. The ledger answer wins: confirmed
// grants are flipped, rejected ones deactivated, still-pending ones left
// for the next sweep.
type Sweeper struct {
	store    interfaces.RecordStore
	ledger   interfaces.LedgerClient
	logger   *logger.Logger
	interval time.Duration
}

// NewSweeper creates a reconciliation sweeper
func NewSweeper(store interfaces.RecordStore, ledger interfaces.LedgerClient, log *logger.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		ledger:   ledger,
		logger:   log,
		interval: interval,
	}
}

// Run sweeps on the configured interval until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce reconciles all pending grants against the ledger
func (s *Sweeper) SweepOnce(ctx context.Context) {
	pending, err := s.store.ListPendingGrants(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Reconciliation sweep could not list pending grants")
		return
	}
	if len(pending) == 0 {
		return
	}

	s.logger.WithField("pending", len(pending)).Info("Reconciling pending grants against ledger")

	for _, grant := range pending {
		s.reconcileGrant(ctx, grant)
	}
}

func (s *Sweeper) reconcileGrant(ctx context.Context, grant *types.AuthorizationGrant) {
	// Stored hashes cannot be reversed; the sweep asks the ledger about
	// the recorded transaction instead.
	if grant.LedgerTxID == "" {
		s.logger.WithField("grant_id", grant.ID).Warn("Pending grant has no ledger transaction, deactivating")
		s.deactivateByHash(ctx, grant)
		return
	}

	status, err := s.ledger.GetTransactionStatus(ctx, grant.LedgerTxID)
	if err != nil {
		s.logger.WithError(err).WithField("tx_id", grant.LedgerTxID).Debug("Sweep could not resolve transaction status")
		return
	}

	switch status {
	case types.TxStatusConfirmed:
		if err := s.store.ConfirmGrantByHash(ctx, grant.PatientWalletHash, grant.DoctorWalletHash); err != nil {
			s.logger.WithError(err).WithField("grant_id", grant.ID).Error("Sweep failed to confirm grant")
		} else {
			s.logger.WithField("grant_id", grant.ID).Info("Sweep confirmed pending grant")
		}
	case types.TxStatusRejected:
		s.deactivateByHash(ctx, grant)
		s.logger.WithField("grant_id", grant.ID).Warn("Sweep deactivated grant for rejected transaction")
	}
}

func (s *Sweeper) deactivateByHash(ctx context.Context, grant *types.AuthorizationGrant) {
	if err := s.store.RevokeGrantByHash(ctx, grant.PatientWalletHash, grant.DoctorWalletHash); err != nil {
		s.logger.WithError(err).WithField("grant_id", grant.ID).Error("Sweep failed to deactivate grant")
	}
}
