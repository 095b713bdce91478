package ledger

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Clarity wire-format type prefixes, as returned by the node's read-only
// call endpoint in the hex "result" field.
const (
	clarityUint     = 0x01
	clarityBoolTrue = 0x03
	clarityBoolFals = 0x04
	clarityNone     = 0x09
	claritySome     = 0x0a
	clarityOkPrefix = 0x07
)

// decodeResultBytes strips the 0x prefix and decodes the hex payload
func decodeResultBytes(result string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(result, "0x"))
	if err != nil {
		return nil, fmt.Errorf("malformed clarity result %q: %w", result, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty clarity result")
	}
	// Read-only functions commonly wrap the value in (ok ...)
	if raw[0] == clarityOkPrefix && len(raw) > 1 {
		raw = raw[1:]
	}
	return raw, nil
}

// decodeBool decodes a Clarity boolean result
func decodeBool(result string) (bool, error) {
	raw, err := decodeResultBytes(result)
	if err != nil {
		return false, err
	}
	switch raw[0] {
	case clarityBoolTrue:
		return true, nil
	case clarityBoolFals:
		return false, nil
	default:
		return false, fmt.Errorf("clarity result is not a boolean: 0x%02x", raw[0])
	}
}

// decodeOptionalUint decodes a Clarity (optional uint) result. Returns
// (value, present, error); a none value yields present=false.
func decodeOptionalUint(result string) (int64, bool, error) {
	raw, err := decodeResultBytes(result)
	if err != nil {
		return 0, false, err
	}

	switch raw[0] {
	case clarityNone:
		return 0, false, nil
	case claritySome:
		raw = raw[1:]
		if len(raw) == 0 || raw[0] != clarityUint {
			return 0, false, fmt.Errorf("clarity optional does not wrap a uint")
		}
		raw = raw[1:]
	case clarityUint:
		raw = raw[1:]
	default:
		return 0, false, fmt.Errorf("clarity result is not an optional uint: 0x%02x", raw[0])
	}

	if len(raw) != 16 {
		return 0, false, fmt.Errorf("clarity uint payload must be 16 bytes, got %d", len(raw))
	}

	// uint128 big-endian; token IDs fit comfortably in the low 64 bits
	var v int64
	for _, b := range raw[8:] {
		v = v<<8 | int64(b)
	}
	return v, true, nil
}
