package types

// SessionClaims identifies the wallet behind an authenticated request.
// The wallet address is resolved once at the edge and passed explicitly;
// there is no ambient "current wallet" state.
type SessionClaims struct {
	WalletAddress string `json:"wallet_address"`
	Role          Role   `json:"role"`
	Network       string `json:"network"`
}
