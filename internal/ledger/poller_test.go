package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emrecanguldogan/HealthChain/pkg/config"
	"github.com/emrecanguldogan/HealthChain/pkg/logger"
	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

// stubStatusClient is a LedgerClient that only answers transaction status
// lookups; the watcher never calls anything else.
type stubStatusClient struct {
	status types.TxStatus
	err    error
}

func (s *stubStatusClient) MintAccessToken(ctx context.Context, walletAddress string) (*types.TransactionHandle, error) {
	panic("not used")
}
func (s *stubStatusClient) GrantAccess(ctx context.Context, patientAddress, doctorAddress string, tokenID int64, permissions []types.Permission) (*types.TransactionHandle, error) {
	panic("not used")
}
func (s *stubStatusClient) RevokeAccess(ctx context.Context, patientAddress, doctorAddress string) (*types.TransactionHandle, error) {
	panic("not used")
}
func (s *stubStatusClient) AssignRole(ctx context.Context, walletAddress string, role types.Role) (*types.TransactionHandle, error) {
	panic("not used")
}
func (s *stubStatusClient) HasAccessToken(ctx context.Context, walletAddress string) (bool, error) {
	panic("not used")
}
func (s *stubStatusClient) GetAccessTokenID(ctx context.Context, walletAddress string) (int64, bool, error) {
	panic("not used")
}
func (s *stubStatusClient) HasAccess(ctx context.Context, patientAddress, doctorAddress string) (bool, error) {
	panic("not used")
}
func (s *stubStatusClient) GetTransactionStatus(ctx context.Context, txID string) (types.TxStatus, error) {
	return s.status, s.err
}

func newTestWatcher(client *stubStatusClient, attempts int) *Watcher {
	return NewWatcher(client, &config.LedgerConfig{
		PollInterval:    1,
		PollMaxAttempts: attempts,
	}, logger.New("error"))
}

func TestWaitForConditionConfirms(t *testing.T) {
	watcher := newTestWatcher(&stubStatusClient{status: types.TxStatusPending}, 3)

	status, err := watcher.WaitForCondition(context.Background(), "0xabc", func(ctx context.Context) (bool, error) {
		return true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, types.TxStatusConfirmed, status)
}

func TestWaitForConditionToleratesTransientCheckErrors(t *testing.T) {
	watcher := newTestWatcher(&stubStatusClient{status: types.TxStatusPending}, 3)

	calls := 0
	status, err := watcher.WaitForCondition(context.Background(), "0xabc", func(ctx context.Context) (bool, error) {
		calls++
		if calls == 1 {
			return false, errors.New("read timed out")
		}
		return true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, types.TxStatusConfirmed, status)
	assert.Equal(t, 2, calls)
}

func TestWaitForConditionDetectsRejection(t *testing.T) {
	watcher := newTestWatcher(&stubStatusClient{status: types.TxStatusRejected}, 3)

	status, err := watcher.WaitForCondition(context.Background(), "0xabc", func(ctx context.Context) (bool, error) {
		return false, nil
	})

	require.NoError(t, err)
	assert.Equal(t, types.TxStatusRejected, status)
}

func TestWaitForConditionTimesOut(t *testing.T) {
	watcher := newTestWatcher(&stubStatusClient{status: types.TxStatusPending}, 2)

	status, err := watcher.WaitForCondition(context.Background(), "0xabc", func(ctx context.Context) (bool, error) {
		return false, nil
	})

	// The window elapsing is a timeout, not a rejection: the caller is
	// told to refresh manually and the sweep retries later.
	require.Error(t, err)
	assert.Equal(t, types.TxStatusPending, status)
	assert.Equal(t, types.ErrCodeTimeout, types.ErrorCode(err))
}

func TestWaitForConditionHonorsContextCancellation(t *testing.T) {
	watcher := newTestWatcher(&stubStatusClient{status: types.TxStatusPending}, 100)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	status, err := watcher.WaitForCondition(ctx, "0xabc", func(ctx context.Context) (bool, error) {
		return false, nil
	})

	require.Error(t, err)
	assert.Equal(t, types.TxStatusPending, status)
}
