package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"strings"
)

const accountIDDomainSeparator = "\x0Aaccount-id"

// Principal is an opaque caller identity
type Principal string

// String returns the textual form of the principal
func (p Principal) String() string {
	return string(p)
}

// IsZero reports whether the principal is empty
func (p Principal) IsZero() bool {
	return p == ""
}

// Subaccount selects one of the accounts owned by a principal
type Subaccount [32]byte

// AccountID is the ledger address derived from a principal and an optional subaccount.
// Layout: 4 bytes big-endian CRC32 of the hash, followed by the 28 byte SHA-224 hash.
type AccountID [32]byte

// NewAccountID derives the ledger account of a principal. A nil subaccount selects the default one.
func NewAccountID(p Principal, sub *Subaccount) AccountID {
	if sub == nil {
		sub = &Subaccount{}
	}

	h := sha256.New224()
	h.Write([]byte(accountIDDomainSeparator))
	h.Write([]byte(p))
	h.Write(sub[:])
	hash := h.Sum(nil)

	var id AccountID
	binary.BigEndian.PutUint32(id[:4], crc32.ChecksumIEEE(hash))
	copy(id[4:], hash)
	return id
}

// ParseAccountID parses a hex encoded account id and verifies its checksum
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID

	raw, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(s), "0x"))
	if err != nil {
		return id, fmt.Errorf("invalid account id %q: %w", s, err)
	}
	if len(raw) != len(id) {
		return id, fmt.Errorf("invalid account id %q: expected %d bytes, got %d", s, len(id), len(raw))
	}
	copy(id[:], raw)

	if binary.BigEndian.Uint32(id[:4]) != crc32.ChecksumIEEE(id[4:]) {
		return id, fmt.Errorf("invalid account id %q: checksum mismatch", s)
	}

	return id, nil
}

// String returns the lowercase hex form of the account id
func (a AccountID) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero reports whether the account id is unset
func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

// MarshalText implements encoding.TextMarshaler
func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *AccountID) UnmarshalText(text []byte) error {
	id, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = id
	return nil
}
