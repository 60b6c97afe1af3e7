// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"bytes"
	"encoding/hex"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
)

// PublicKeyLength length of a compressed secp256k1 public key.
const PublicKeyLength = secp256k1.PubKeyBytesLenCompressed

// PublicKey compressed secp256k1 public key. Delegates are identified by it.
type PublicKey [PublicKeyLength]byte

// String returns the lower case hex form without prefix.
func (pk PublicKey) String() string {
	return hex.EncodeToString(pk[:])
}

// Bytes returns byte slice form of the key.
func (pk PublicKey) Bytes() []byte {
	return pk[:]
}

// IsZero returns if the key has all zero bytes.
func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

// Less orders keys by their bytes.
func (pk PublicKey) Less(other PublicKey) bool {
	return bytes.Compare(pk[:], other[:]) < 0
}

// Address returns the address derived from the key.
func (pk PublicKey) Address() Address {
	return AddressOf(pk)
}

// MarshalText implements encoding.TextMarshaler.
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// ParsePublicKey decodes a hex encoded compressed key and checks it is a point on the curve.
func ParsePublicKey(s string) (PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, errors.Wrap(err, "decode public key")
	}
	if len(raw) != PublicKeyLength {
		return PublicKey{}, errors.Errorf("invalid public key length %d", len(raw))
	}
	if _, err := secp256k1.ParsePubKey(raw); err != nil {
		return PublicKey{}, errors.Wrap(err, "parse public key")
	}
	var pk PublicKey
	copy(pk[:], raw)
	return pk, nil
}

// MustParsePublicKey is like ParsePublicKey but panics on error.
func MustParsePublicKey(s string) PublicKey {
	pk, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// PublicKeyFromSecret derives the public key of a private scalar. It is meant for tools and tests.
func PublicKeyFromSecret(secret []byte) PublicKey {
	priv := secp256k1.PrivKeyFromBytes(secret)
	var pk PublicKey
	copy(pk[:], priv.PubKey().SerializeCompressed())
	return pk
}
