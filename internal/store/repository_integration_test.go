//go:build integration

package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/emrecanguldogan/HealthChain/pkg/config"
	"github.com/emrecanguldogan/HealthChain/pkg/database"
	"github.com/emrecanguldogan/HealthChain/pkg/hashing"
	"github.com/emrecanguldogan/HealthChain/pkg/logger"
	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

var (
	testDB   *database.DB
	testRepo *Repository
)

// TestMain starts a postgres container and creates the schema once for
// the whole package
func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := setupTestDatabase(ctx)
	if err != nil {
		log.Fatalf("Failed to set up test database: %v", err)
	}

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	if container != nil {
		container.Terminate(ctx)
	}

	os.Exit(code)
}

func setupTestDatabase(ctx context.Context) (testcontainers.Container, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "healthchain_test",
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return container, fmt.Errorf("failed to get postgres host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return container, fmt.Errorf("failed to get postgres port: %w", err)
	}

	log := logger.New("error")
	cfg := &config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		Name:            "healthchain_test",
		User:            "test",
		Password:        "testpass",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 300,
	}

	// NewConnection pings; the wait strategy has the port listening but
	// the server may still be initializing
	for i := 0; i < 30; i++ {
		testDB, err = database.NewConnection(cfg, log)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		return container, fmt.Errorf("failed to connect to test database: %w", err)
	}

	if err := testDB.CreateSchema(ctx); err != nil {
		return container, fmt.Errorf("failed to create test schema: %w", err)
	}

	testRepo = NewRepository(testDB, log)
	return container, nil
}

func countGrantRows(t *testing.T, patientAddress, doctorAddress string) int {
	t.Helper()
	var count int
	err := testDB.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM doctor_authorizations WHERE grant_key = $1`,
		hashing.GrantKey(patientAddress, doctorAddress),
	).Scan(&count)
	require.NoError(t, err)
	return count
}

func TestGrantPairStaysUniqueAcrossRegrants(t *testing.T) {
	ctx := context.Background()
	patient := "ST1UNIQUE0PATIENT"
	doctor := "ST1UNIQUE0DOCTOR"

	_, err := testRepo.PutGrant(ctx, patient, doctor, []types.Permission{types.PermissionRead}, "0xtx1")
	require.NoError(t, err)
	_, err = testRepo.PutGrant(ctx, patient, doctor, []types.Permission{types.PermissionRead, types.PermissionWrite}, "0xtx2")
	require.NoError(t, err)

	// The second grant updated the row instead of inserting a sibling
	assert.Equal(t, 1, countGrantRows(t, patient, doctor))

	grant, err := testRepo.GetGrant(ctx, patient, doctor)
	require.NoError(t, err)
	assert.Equal(t, []types.Permission{types.PermissionRead, types.PermissionWrite}, grant.Permissions)
	assert.Equal(t, "0xtx2", grant.LedgerTxID)
}

func TestRegrantAfterRevokeReactivatesAndResetsConfirmation(t *testing.T) {
	ctx := context.Background()
	patient := "ST1REGRANT0PATIENT"
	doctor := "ST1REGRANT0DOCTOR"

	_, err := testRepo.PutGrant(ctx, patient, doctor, []types.Permission{types.PermissionRead}, "0xtx1")
	require.NoError(t, err)
	require.NoError(t, testRepo.ConfirmGrant(ctx, patient, doctor))
	require.NoError(t, testRepo.RevokeGrant(ctx, patient, doctor))

	granted, err := testRepo.IsGranted(ctx, patient, doctor)
	require.NoError(t, err)
	assert.False(t, granted)

	_, err = testRepo.PutGrant(ctx, patient, doctor, []types.Permission{types.PermissionRead}, "0xtx2")
	require.NoError(t, err)

	granted, err = testRepo.IsGranted(ctx, patient, doctor)
	require.NoError(t, err)
	assert.True(t, granted)

	// The re-grant restarts ledger confirmation tracking
	grant, err := testRepo.GetGrant(ctx, patient, doctor)
	require.NoError(t, err)
	assert.True(t, grant.Active)
	assert.False(t, grant.Confirmed)
	assert.Equal(t, "0xtx2", grant.LedgerTxID)
	assert.Equal(t, 1, countGrantRows(t, patient, doctor))
}

func TestIsGrantedIgnoresRevokedRows(t *testing.T) {
	ctx := context.Background()
	patient := "ST1REVOKED0PATIENT"
	doctor := "ST1REVOKED0DOCTOR"

	_, err := testRepo.PutGrant(ctx, patient, doctor, []types.Permission{types.PermissionRead}, "0xtx1")
	require.NoError(t, err)
	require.NoError(t, testRepo.RevokeGrant(ctx, patient, doctor))

	// The row survives revocation but no longer answers IsGranted
	assert.Equal(t, 1, countGrantRows(t, patient, doctor))
	granted, err := testRepo.IsGranted(ctx, patient, doctor)
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestListPendingGrantsExcludesConfirmedAndRevoked(t *testing.T) {
	ctx := context.Background()
	patient := "ST1PENDING0PATIENT"
	pendingDoctor := "ST1PENDING0DOCTOR"
	confirmedDoctor := "ST1CONFIRMED0DOCTOR"
	revokedDoctor := "ST1REVOKED1DOCTOR"

	_, err := testRepo.PutGrant(ctx, patient, pendingDoctor, []types.Permission{types.PermissionRead}, "0xpending")
	require.NoError(t, err)
	_, err = testRepo.PutGrant(ctx, patient, confirmedDoctor, []types.Permission{types.PermissionRead}, "0xconfirmed")
	require.NoError(t, err)
	require.NoError(t, testRepo.ConfirmGrant(ctx, patient, confirmedDoctor))
	_, err = testRepo.PutGrant(ctx, patient, revokedDoctor, []types.Permission{types.PermissionRead}, "0xrevoked")
	require.NoError(t, err)
	require.NoError(t, testRepo.RevokeGrant(ctx, patient, revokedDoctor))

	pending, err := testRepo.ListPendingGrants(ctx)
	require.NoError(t, err)

	var txIDs []string
	for _, g := range pending {
		txIDs = append(txIDs, g.LedgerTxID)
	}
	assert.Contains(t, txIDs, "0xpending")
	assert.NotContains(t, txIDs, "0xconfirmed")
	assert.NotContains(t, txIDs, "0xrevoked")
}

func TestListRecordsReturnsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	patient := "ST1RECORDS0PATIENT"

	var ids []string
	for _, recordType := range []string{"lab_result", "prescription", "imaging"} {
		id, err := testRepo.PutRecord(ctx, patient, &types.HealthRecord{
			RecordType: recordType,
			Data:       "encrypted-payload",
		})
		require.NoError(t, err)
		ids = append(ids, id)
		// Record IDs carry a millisecond timestamp; spacing the writes
		// keeps the IDs distinct and the order assertion meaningful
		time.Sleep(2 * time.Millisecond)
	}

	records, err := testRepo.ListRecords(ctx, patient)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, record := range records {
		assert.Equal(t, ids[i], record.ID)
	}
	assert.Equal(t, "lab_result", records[0].RecordType)
	assert.Equal(t, "imaging", records[2].RecordType)
}

func TestPatientProfileUpsert(t *testing.T) {
	ctx := context.Background()
	patient := "ST1PROFILE0PATIENT"

	key, err := testRepo.PutPatientProfile(ctx, patient, &types.PatientProfile{Name: "Jane Roe", Age: 40})
	require.NoError(t, err)
	assert.Equal(t, hashing.WalletHash(patient), key)

	_, err = testRepo.PutPatientProfile(ctx, patient, &types.PatientProfile{Name: "Jane Roe", Age: 41, BloodType: "0+"})
	require.NoError(t, err)

	profile, err := testRepo.GetPatientProfile(ctx, patient)
	require.NoError(t, err)
	assert.Equal(t, 41, profile.Age)
	assert.Equal(t, "0+", profile.BloodType)

	exists, err := testRepo.HasPatientProfile(ctx, patient)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetGrantNotFound(t *testing.T) {
	_, err := testRepo.GetGrant(context.Background(), "ST1NOSUCH0PATIENT", "ST1NOSUCH0DOCTOR")
	require.Error(t, err)

	ae, ok := err.(*types.AccessError)
	require.True(t, ok)
	assert.Equal(t, types.ErrorTypeNotFound, ae.Type)
}
