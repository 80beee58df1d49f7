package password

import (
	"errors"

	"github.com/alexedwards/argon2id"
)

var policy = LoadParamsFromEnv()

// ErrMismatch is returned by Verify when the password does not match.
var ErrMismatch = errors.New("password mismatch")

// UsePolicy swaps the hashing policy (tests use cheap parameters).
func UsePolicy(p Params) { policy = p }

func (p Params) argon() *argon2id.Params {
	return &argon2id.Params{
		Memory:      p.Memory,
		Iterations:  p.Iterations,
		Parallelism: p.Parallelism,
		SaltLength:  p.SaltLength,
		KeyLength:   p.KeyLength,
	}
}

// Hash returns a PHC string like `$argon2id$v=19$m=131072,t=3,p=1$...`
func Hash(plain string) (string, error) {
	return argon2id.CreateHash(plain, policy.argon())
}

// Verify checks a password against a PHC hash and reports whether the hash was
// produced with weaker parameters than the current policy.
func Verify(plain, phc string) (needsRehash bool, err error) {
	ok, err := argon2id.ComparePasswordAndHash(plain, phc)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrMismatch
	}
	return NeedsRehash(phc), nil
}

func NeedsRehash(phc string) bool {
	stored, _, _, err := argon2id.DecodeHash(phc)
	if err != nil {
		return true
	}
	return stored.Memory < policy.Memory ||
		stored.Iterations < policy.Iterations ||
		stored.Parallelism < policy.Parallelism ||
		stored.SaltLength < policy.SaltLength ||
		stored.KeyLength < policy.KeyLength
}
