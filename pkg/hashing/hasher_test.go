package hashing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWalletHash_Deterministic(t *testing.T) {
	addr := "ST1M2X1WBC60W09W91W4ESDRHM94H75VGXGDNCQE8"

	assert.Equal(t, WalletHash(addr), WalletHash(addr))
}

func TestWalletHash_DistinctInputs(t *testing.T) {
	h1 := WalletHash("ST1M2X1WBC60W09W91W4ESDRHM94H75VGXGDNCQE8")
	h2 := WalletHash("ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG")

	assert.NotEqual(t, h1, h2)
}

func TestWalletHash_HexEncoded(t *testing.T) {
	h := WalletHash("ST1M2X1WBC60W09W91W4ESDRHM94H75VGXGDNCQE8")

	assert.Len(t, h, 64)
	assert.Regexp(t, "^[0-9a-f]+$", h)
}

func TestWalletHash_EmptyString(t *testing.T) {
	// Empty input is hashed like any other string, no special-casing
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", WalletHash(""))
}

func TestGrantKey_Composite(t *testing.T) {
	patient := "ST1M2X1WBC60W09W91W4ESDRHM94H75VGXGDNCQE8"
	doctor := "ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG"

	key := GrantKey(patient, doctor)

	assert.Equal(t, WalletHash(patient)+"_"+WalletHash(doctor), key)
	assert.NotEqual(t, key, GrantKey(doctor, patient))
}

func TestRecordID_IncludesPatientHashAndTimestamp(t *testing.T) {
	patient := "ST1M2X1WBC60W09W91W4ESDRHM94H75VGXGDNCQE8"
	at := time.UnixMilli(1700000000000)

	id := RecordID(patient, at)

	assert.Equal(t, WalletHash(patient)+"_1700000000000", id)
}
