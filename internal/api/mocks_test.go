package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/emrecanguldogan/HealthChain/pkg/interfaces"
	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

type mockAccessService struct {
	mock.Mock
}

func (m *mockAccessService) CheckAccess(ctx context.Context, patientAddress, requesterAddress string) (*types.AccessDecision, error) {
	args := m.Called(ctx, patientAddress, requesterAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.AccessDecision), args.Error(1)
}

func (m *mockAccessService) Mint(ctx context.Context, patientAddress string) (*interfaces.GrantResult, error) {
	args := m.Called(ctx, patientAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.GrantResult), args.Error(1)
}

func (m *mockAccessService) Grant(ctx context.Context, patientAddress, doctorAddress string, permissions []types.Permission) (*interfaces.GrantResult, error) {
	args := m.Called(ctx, patientAddress, doctorAddress, permissions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.GrantResult), args.Error(1)
}

func (m *mockAccessService) Revoke(ctx context.Context, patientAddress, doctorAddress string) (*interfaces.GrantResult, error) {
	args := m.Called(ctx, patientAddress, doctorAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.GrantResult), args.Error(1)
}

func (m *mockAccessService) TokenStatus(ctx context.Context, patientAddress string) (*types.AccessToken, error) {
	args := m.Called(ctx, patientAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.AccessToken), args.Error(1)
}

type mockRecordStore struct {
	mock.Mock
}

func (m *mockRecordStore) PutPatientProfile(ctx context.Context, walletAddress string, profile *types.PatientProfile) (string, error) {
	args := m.Called(ctx, walletAddress, profile)
	return args.String(0), args.Error(1)
}

func (m *mockRecordStore) GetPatientProfile(ctx context.Context, walletAddress string) (*types.PatientProfile, error) {
	args := m.Called(ctx, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PatientProfile), args.Error(1)
}

func (m *mockRecordStore) HasPatientProfile(ctx context.Context, walletAddress string) (bool, error) {
	args := m.Called(ctx, walletAddress)
	return args.Bool(0), args.Error(1)
}

func (m *mockRecordStore) PutDoctorProfile(ctx context.Context, walletAddress string, profile *types.DoctorProfile) (string, error) {
	args := m.Called(ctx, walletAddress, profile)
	return args.String(0), args.Error(1)
}

func (m *mockRecordStore) GetDoctorProfile(ctx context.Context, walletAddress string) (*types.DoctorProfile, error) {
	args := m.Called(ctx, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.DoctorProfile), args.Error(1)
}

func (m *mockRecordStore) HasDoctorProfile(ctx context.Context, walletAddress string) (bool, error) {
	args := m.Called(ctx, walletAddress)
	return args.Bool(0), args.Error(1)
}

func (m *mockRecordStore) PutRecord(ctx context.Context, patientAddress string, record *types.HealthRecord) (string, error) {
	args := m.Called(ctx, patientAddress, record)
	return args.String(0), args.Error(1)
}

func (m *mockRecordStore) ListRecords(ctx context.Context, patientAddress string) ([]*types.HealthRecord, error) {
	args := m.Called(ctx, patientAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.HealthRecord), args.Error(1)
}

func (m *mockRecordStore) PutGrant(ctx context.Context, patientAddress, doctorAddress string, permissions []types.Permission, ledgerTxID string) (*types.AuthorizationGrant, error) {
	args := m.Called(ctx, patientAddress, doctorAddress, permissions, ledgerTxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.AuthorizationGrant), args.Error(1)
}

func (m *mockRecordStore) GetGrant(ctx context.Context, patientAddress, doctorAddress string) (*types.AuthorizationGrant, error) {
	args := m.Called(ctx, patientAddress, doctorAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.AuthorizationGrant), args.Error(1)
}

func (m *mockRecordStore) IsGranted(ctx context.Context, patientAddress, doctorAddress string) (bool, error) {
	args := m.Called(ctx, patientAddress, doctorAddress)
	return args.Bool(0), args.Error(1)
}

func (m *mockRecordStore) RevokeGrant(ctx context.Context, patientAddress, doctorAddress string) error {
	args := m.Called(ctx, patientAddress, doctorAddress)
	return args.Error(0)
}

func (m *mockRecordStore) ConfirmGrant(ctx context.Context, patientAddress, doctorAddress string) error {
	args := m.Called(ctx, patientAddress, doctorAddress)
	return args.Error(0)
}

func (m *mockRecordStore) ListPendingGrants(ctx context.Context) ([]*types.AuthorizationGrant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.AuthorizationGrant), args.Error(1)
}

func (m *mockRecordStore) ConfirmGrantByHash(ctx context.Context, patientHash, doctorHash string) error {
	args := m.Called(ctx, patientHash, doctorHash)
	return args.Error(0)
}

func (m *mockRecordStore) RevokeGrantByHash(ctx context.Context, patientHash, doctorHash string) error {
	args := m.Called(ctx, patientHash, doctorHash)
	return args.Error(0)
}

type mockLedgerClient struct {
	mock.Mock
}

func (m *mockLedgerClient) MintAccessToken(ctx context.Context, walletAddress string) (*types.TransactionHandle, error) {
	args := m.Called(ctx, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TransactionHandle), args.Error(1)
}

func (m *mockLedgerClient) GrantAccess(ctx context.Context, patientAddress, doctorAddress string, tokenID int64, permissions []types.Permission) (*types.TransactionHandle, error) {
	args := m.Called(ctx, patientAddress, doctorAddress, tokenID, permissions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TransactionHandle), args.Error(1)
}

func (m *mockLedgerClient) RevokeAccess(ctx context.Context, patientAddress, doctorAddress string) (*types.TransactionHandle, error) {
	args := m.Called(ctx, patientAddress, doctorAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TransactionHandle), args.Error(1)
}

func (m *mockLedgerClient) AssignRole(ctx context.Context, walletAddress string, role types.Role) (*types.TransactionHandle, error) {
	args := m.Called(ctx, walletAddress, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TransactionHandle), args.Error(1)
}

func (m *mockLedgerClient) HasAccessToken(ctx context.Context, walletAddress string) (bool, error) {
	args := m.Called(ctx, walletAddress)
	return args.Bool(0), args.Error(1)
}

func (m *mockLedgerClient) GetAccessTokenID(ctx context.Context, walletAddress string) (int64, bool, error) {
	args := m.Called(ctx, walletAddress)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *mockLedgerClient) HasAccess(ctx context.Context, patientAddress, doctorAddress string) (bool, error) {
	args := m.Called(ctx, patientAddress, doctorAddress)
	return args.Bool(0), args.Error(1)
}

func (m *mockLedgerClient) GetTransactionStatus(ctx context.Context, txID string) (types.TxStatus, error) {
	args := m.Called(ctx, txID)
	return args.Get(0).(types.TxStatus), args.Error(1)
}
