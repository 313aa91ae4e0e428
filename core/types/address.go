package types

import (
	"encoding/hex"
	"errors"
	"strings"
)

// AddressLength is the byte length of ledger addresses.
const AddressLength = 20

// Address identifies an account on the ledger.
type Address [AddressLength]byte

var ErrInvalidAddress = errors.New("types: invalid address")

// ParseAddress decodes a 0x-prefixed hex address.
func ParseAddress(s string) (Address, error) {
	var addr Address
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "0x")
	trimmed = strings.TrimPrefix(trimmed, "0X")
	raw, err := hex.DecodeString(trimmed)
	if err != nil || len(raw) != AddressLength {
		return Address{}, ErrInvalidAddress
	}
	copy(addr[:], raw)
	return addr, nil
}

// BytesToAddress converts a byte slice to an Address, left-truncating or
// zero-padding as needed.
func BytesToAddress(b []byte) Address {
	var addr Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(addr[AddressLength-len(b):], b)
	return addr
}

// Bytes returns the raw address bytes.
func (a Address) Bytes() []byte { return a[:] }

// IsZero reports whether the address is the null identity.
func (a Address) IsZero() bool { return a == Address{} }

// String renders the address as 0x-prefixed hex.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}
