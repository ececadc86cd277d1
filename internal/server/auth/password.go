package auth

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/dmitrijs2005/studyshelf/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of a freshly generated password salt.
const SaltSize = 32

// NewSalt returns a random salt for a new account.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// DeriveVerifier stretches password with Argon2id and hashes the result.
// Only the verifier and the salt are stored.
func DeriveVerifier(password, salt []byte) []byte {
	key := argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
	defer common.WipeByteArray(key)
	sum := sha256.Sum256(key)
	return sum[:]
}

// CheckPassword reports whether password matches verifier, in constant time.
func CheckPassword(password, salt, verifier []byte) bool {
	return subtle.ConstantTimeCompare(DeriveVerifier(password, salt), verifier) == 1
}
