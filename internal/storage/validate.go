package storage

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/wallet-radar/internal/types"
)

// ValidateAddress validates a wallet address format
func ValidateAddress(address string) error {
	if !common.IsHexAddress(address) {
		return &types.ServiceError{
			Code:    "INVALID_ADDRESS_FORMAT",
			Message: fmt.Sprintf("invalid address format: %s (must be 0x followed by 40 hexadecimal characters)", address),
			Details: map[string]any{
				"address": address,
			},
		}
	}
	return nil
}

// NormalizeAddress lowercases a validated address for storage and lookup.
func NormalizeAddress(address string) string {
	return strings.ToLower(address)
}
