package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password for account storage. An
// out-of-range cost is clamped into bcrypt's supported window so a
// misconfigured BCRYPT_COST cannot silently weaken hashes or make
// account upgrades crawl.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a stored hash against a plaintext
// candidate in constant time.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
