package bingo

import (
	"crypto/sha1"
	"encoding/hex"
)

// Fingerprint derives the round hash grouping all claims made against the
// same shuffled sequence. When the caller supplies the full 25-number
// shuffle, the hash is taken over that sequence, so claims at different
// reveal depths land in the same round. Without it we fall back to hashing
// the called prefix itself; this is weaker on purpose (two shuffles sharing
// a prefix collide, and different depths of one shuffle produce different
// rounds) and must not be silently strengthened.
func Fingerprint(fullSequence, calledNumbers []int) string {
	var seq string
	if len(fullSequence) == CellCount {
		seq = Canonical(fullSequence)
	} else {
		seq = "prefix:" + Canonical(calledNumbers)
	}
	sum := sha1.Sum([]byte(seq))
	return hex.EncodeToString(sum[:])
}
