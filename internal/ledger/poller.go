package ledger

import (
	"context"
	"time"

	"github.com/emrecanguldogan/HealthChain/pkg/config"
	"github.com/emrecanguldogan/HealthChain/pkg/interfaces"
	"github.com/emrecanguldogan/HealthChain/pkg/logger"
	"github.com/emrecanguldogan/HealthChain/pkg/monitoring"
	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

// Watcher polls for a submitted transaction's post-condition on a fixed
// interval. The default cadence is one check every 10 seconds for at most
// 12 attempts (~2 minutes); when the window elapses the caller is told to
// refresh manually rather than the system waiting forever.
type Watcher struct {
	client   interfaces.LedgerClient
	logger   *logger.Logger
	interval time.Duration
	attempts int
}

// NewWatcher creates a confirmation watcher from ledger configuration
func NewWatcher(client interfaces.LedgerClient, cfg *config.LedgerConfig, log *logger.Logger) *Watcher {
	return &Watcher{
		client:   client,
		logger:   log,
		interval: time.Duration(cfg.PollInterval) * time.Second,
		attempts: cfg.PollMaxAttempts,
	}
}

// WaitForCondition polls check until it observes the expected
// post-condition, the transaction reaches a terminal rejected state, the
// attempt budget is exhausted, or ctx is cancelled. A rejected
// transaction resolves without error; an exhausted window resolves to
// pending with a Timeout error.
func (w *Watcher) WaitForCondition(ctx context.Context, txID string, check func(context.Context) (bool, error)) (types.TxStatus, error) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= w.attempts; attempt++ {
		select {
		case <-ctx.Done():
			return types.TxStatusPending, ctx.Err()
		case <-ticker.C:
		}

		monitoring.RecordConfirmationPoll()

		ok, err := check(ctx)
		if err != nil {
			// Transient read failures are tolerated within the window
			w.logger.WithError(err).WithField("tx_id", txID).Debug("Confirmation poll check failed")
			continue
		}
		if ok {
			w.logger.WithField("tx_id", txID).WithField("attempts", attempt).Info("Transaction post-condition observed")
			return types.TxStatusConfirmed, nil
		}

		if txID != "" {
			status, err := w.client.GetTransactionStatus(ctx, txID)
			if err == nil && status == types.TxStatusRejected {
				w.logger.WithField("tx_id", txID).Warn("Transaction rejected by ledger")
				return types.TxStatusRejected, nil
			}
		}

		w.logger.WithField("tx_id", txID).
			WithField("attempt", attempt).
			WithField("max_attempts", w.attempts).
			Debug("Transaction still pending in mempool")
	}

	return types.TxStatusPending, types.NewTimeoutError(
		"transaction still pending after confirmation window; refresh manually to check again",
		map[string]interface{}{
			"tx_id":       txID,
			"attempts":    w.attempts,
			"interval_ms": w.interval.Milliseconds(),
		},
	)
}
