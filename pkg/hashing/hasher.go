package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// WalletHash maps a wallet address to its storage key: SHA-256 over the
// UTF-8 bytes of the address, hex-encoded. Deterministic, no special
// casing; an empty address hashes like any other string.
func WalletHash(walletAddress string) string {
	sum := sha256.Sum256([]byte(walletAddress))
	return hex.EncodeToString(sum[:])
}

// GrantKey builds the composite key for a (patient, doctor) grant
func GrantKey(patientAddress, doctorAddress string) string {
	return WalletHash(patientAddress) + "_" + WalletHash(doctorAddress)
}

// RecordID builds a per-store-unique health record ID from the patient
// hash and a millisecond timestamp. Uniqueness under clock skew is not
// guaranteed, which is acceptable for a cache.
func RecordID(patientAddress string, at time.Time) string {
	return WalletHash(patientAddress) + "_" + strconv.FormatInt(at.UnixMilli(), 10)
}
