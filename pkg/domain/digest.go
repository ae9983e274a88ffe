package domain

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "firtrace/pkg/domain-errors"
)

// DigestLen is the byte length of a content digest (keccak256).
const DigestLen = 32

// ContentDigest is the keccak256 digest of a piece of evidence content (in
// practice, of the content identifier returned by the evidence store).
type ContentDigest [DigestLen]byte

// DigestOf computes the keccak256 digest of raw bytes.
func DigestOf(data []byte) ContentDigest {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)

	var d ContentDigest
	copy(d[:], h.Sum(nil))
	return d
}

// ParseDigest constructs a ContentDigest from a 0x-prefixed hex string.
func ParseDigest(s string) (ContentDigest, error) {
	var d ContentDigest
	raw := strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(raw) != DigestLen*2 {
		return d, dErrors.Newf(dErrors.CodeInvalidInput, "digest must be %d hex characters", DigestLen*2)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return d, dErrors.New(dErrors.CodeInvalidInput, "digest is not valid hex")
	}
	copy(d[:], b)
	return d, nil
}

func (d ContentDigest) String() string {
	return "0x" + hex.EncodeToString(d[:])
}
