package cryptoutil

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/btcec"

	"github.com/bamilab/quartznet/common"
)

// PurposeTag is the domain-separation constant bound into every signature
// in this system (original_source/src/common.rs: `self.verify(777, ...)`).
const PurposeTag uint32 = 777

// digest binds the purpose tag to the content hash before signing, so a
// signature produced for one purpose can never be replayed as another.
func digest(hash common.Hash) common.Hash {
	var tagged [4 + common.HashSize]byte
	binary.LittleEndian.PutUint32(tagged[:4], PurposeTag)
	copy(tagged[4:], hash[:])
	return Hash(tagged[:])
}

// Sign produces a purpose-tagged signature of hash under priv. The result
// is a 65-byte compact signature (recovery byte first) as produced by
// btcec.SignCompact.
func Sign(priv *btcec.PrivateKey, hash common.Hash) (common.Signature, error) {
	d := digest(hash)
	sig, err := btcec.SignCompact(btcec.S256(), priv, d[:], true)
	if err != nil {
		return common.Signature{}, err
	}
	var out common.Signature
	copy(out[:], sig)
	return out, nil
}

// Verify reports whether sig is a valid purpose-tagged signature of hash by
// the holder of public key pub, matching original_source's
// `Signature::verify_hash`.
func Verify(sig common.Signature, hash common.Hash, pub common.PublicKey) bool {
	d := digest(hash)
	recovered, _, err := btcec.RecoverCompact(btcec.S256(), sig[:], d[:])
	if err != nil {
		return false
	}
	var recoveredKey common.PublicKey
	copy(recoveredKey[:], recovered.SerializeCompressed())
	return recoveredKey == pub
}
