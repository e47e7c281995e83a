package ast

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a content hash of the program's canonical printed
// form. Two runs of the compiler over the same input must produce
// fingerprint-equal programs; the pipeline tests rely on this.
func Fingerprint(p *Program) string {
	sum := sha256.Sum256([]byte(Print(p)))
	return hex.EncodeToString(sum[:])
}
