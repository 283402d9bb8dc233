package risk

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// WalletScore computes a wallet-level risk score for an address.
//
// Placeholder heuristic until richer on-chain data sources are wired in: a
// deterministic hash of the address keeps scores stable across calls. The
// first 4 hex characters of the sha256 digest reduced mod 71 plus a 30
// offset always yields a value in [30, 100].
func WalletScore(address string) int {
	sum := sha256.Sum256([]byte(address))
	digest := hex.EncodeToString(sum[:])

	n, err := strconv.ParseInt(digest[:4], 16, 64)
	if err != nil {
		// Unreachable: the digest is always valid hex.
		return ClampScore(30)
	}

	return ClampScore(30 + int(n%71))
}
