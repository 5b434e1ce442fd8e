package chain

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAddress is returned for strings which are not 20 byte hex addresses.
var ErrInvalidAddress = errors.New("invalid address")

// NormalizeAddress returns the EIP-55 checksummed form of s.
func NormalizeAddress(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return "", ErrInvalidAddress
	}
	return common.HexToAddress(s).Hex(), nil
}

