package ledger

import (
	"fmt"
	"strings"

	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

// contractCall names a contract function together with its Clarity
// argument literals.
type contractCall struct {
	Function string
	Args     []string
}

// contractAdapter maps authorization intents onto the function shapes of
// one deployed contract version. The versions diverge: the first contract
// took the grant as grant-access(doctor) with no token argument, while v5
// renamed the functions and added a permission list. Callers never
// hard-code one shape.
type contractAdapter interface {
	Mint() contractCall
	Grant(doctorAddress string, tokenID int64, permissions []types.Permission) contractCall
	Revoke(doctorAddress string) contractCall
	AssignRole(role types.Role) contractCall
	HasAccessToken(walletAddress string) contractCall
	GetTokenID(walletAddress string) contractCall
	HasAccess(patientAddress, doctorAddress string) contractCall
}

// adapterFor selects the adapter matching a deployed contract name
func adapterFor(contractName string) (contractAdapter, error) {
	switch contractName {
	case "healthchain":
		return healthchainV1Adapter{}, nil
	case "healthchain_v5":
		return healthchainV5Adapter{}, nil
	default:
		return nil, fmt.Errorf("unsupported contract version: %s", contractName)
	}
}

// healthchainV1Adapter targets the original healthchain contract
type healthchainV1Adapter struct{}

func (healthchainV1Adapter) Mint() contractCall {
	return contractCall{Function: "mint-access-token"}
}

func (healthchainV1Adapter) Grant(doctorAddress string, tokenID int64, _ []types.Permission) contractCall {
	// v1 has no permission list; the grant is all-or-nothing
	return contractCall{
		Function: "grant-access",
		Args:     []string{principalLiteral(doctorAddress), uintLiteral(tokenID)},
	}
}

func (healthchainV1Adapter) Revoke(doctorAddress string) contractCall {
	return contractCall{
		Function: "revoke-access",
		Args:     []string{principalLiteral(doctorAddress)},
	}
}

func (healthchainV1Adapter) AssignRole(role types.Role) contractCall {
	return contractCall{
		Function: "assign-role",
		Args:     []string{asciiLiteral(string(role))},
	}
}

func (healthchainV1Adapter) HasAccessToken(walletAddress string) contractCall {
	return contractCall{
		Function: "has-access-token",
		Args:     []string{principalLiteral(walletAddress)},
	}
}

func (healthchainV1Adapter) GetTokenID(walletAddress string) contractCall {
	return contractCall{
		Function: "get-token-id",
		Args:     []string{principalLiteral(walletAddress)},
	}
}

func (healthchainV1Adapter) HasAccess(patientAddress, doctorAddress string) contractCall {
	return contractCall{
		Function: "has-access",
		Args:     []string{principalLiteral(patientAddress), principalLiteral(doctorAddress)},
	}
}

// healthchainV5Adapter targets the healthchain_v5 contract
type healthchainV5Adapter struct{}

func (healthchainV5Adapter) Mint() contractCall {
	return contractCall{Function: "mint-access-token"}
}

func (healthchainV5Adapter) Grant(doctorAddress string, _ int64, permissions []types.Permission) contractCall {
	// v5 drops the token argument (the contract resolves ownership from
	// tx-sender) and takes an explicit permission list
	return contractCall{
		Function: "authorize-doctor",
		Args:     []string{principalLiteral(doctorAddress), permissionListLiteral(permissions)},
	}
}

func (healthchainV5Adapter) Revoke(doctorAddress string) contractCall {
	return contractCall{
		Function: "revoke-doctor",
		Args:     []string{principalLiteral(doctorAddress)},
	}
}

func (healthchainV5Adapter) AssignRole(role types.Role) contractCall {
	return contractCall{
		Function: "assign-role",
		Args:     []string{asciiLiteral(string(role))},
	}
}

func (healthchainV5Adapter) HasAccessToken(walletAddress string) contractCall {
	return contractCall{
		Function: "has-access-token",
		Args:     []string{principalLiteral(walletAddress)},
	}
}

func (healthchainV5Adapter) GetTokenID(walletAddress string) contractCall {
	return contractCall{
		Function: "get-token-id",
		Args:     []string{principalLiteral(walletAddress)},
	}
}

func (healthchainV5Adapter) HasAccess(patientAddress, doctorAddress string) contractCall {
	return contractCall{
		Function: "has-access",
		Args:     []string{principalLiteral(patientAddress), principalLiteral(doctorAddress)},
	}
}

// Clarity literal encoding for function arguments

func principalLiteral(address string) string {
	return "'" + address
}

func uintLiteral(v int64) string {
	return fmt.Sprintf("u%d", v)
}

func asciiLiteral(s string) string {
	return `"` + s + `"`
}

func permissionListLiteral(permissions []types.Permission) string {
	parts := make([]string, len(permissions))
	for i, p := range permissions {
		parts[i] = asciiLiteral(string(p))
	}
	return "(list " + strings.Join(parts, " ") + ")"
}
