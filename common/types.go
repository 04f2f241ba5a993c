// Copyright 2014 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package common holds the types and error taxonomy shared across every
// component: hashes, public keys, and the malformed/transport/persistence
// error kinds that the receive loop and Node supervisor branch on.
package common

import "encoding/hex"

// HashSize is the width of every content hash in the system.
const HashSize = 32

// PublicKeySize is the width of a compressed secp256k1 public key.
const PublicKeySize = 33

// Hash identifies a block, a post, or a profile by the digest of its
// serialized bytes.
type Hash [HashSize]byte

// String renders the hash as a lowercase hex string.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is the zero value, used to represent
// "no value" for optional hash fields on the wire.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// BytesToHash copies b into a Hash, left-truncating or zero-padding as
// needed so callers never have to bounds-check slice lengths by hand.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashSize {
		b = b[len(b)-HashSize:]
	}
	copy(h[HashSize-len(b):], b)
	return h
}

// PublicKey identifies a channel owner or a publisher.
type PublicKey [PublicKeySize]byte

// String renders the key as a lowercase hex string, used as the file name
// for a subscription record and as a table key everywhere else.
func (k PublicKey) String() string {
	return hex.EncodeToString(k[:])
}

// IsZero reports whether the key is the zero value.
func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

// BytesToPublicKey copies b into a PublicKey.
func BytesToPublicKey(b []byte) PublicKey {
	var k PublicKey
	copy(k[PublicKeySize-len(b):], b)
	return k
}

// Signature is a fixed-width secp256k1 compact signature (a recovery byte
// followed by r and s).
type Signature [65]byte
