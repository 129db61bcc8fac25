package hash

import "golang.org/x/crypto/bcrypt"

// Cost matches the work factor the rest of the system was provisioned for.
const Cost = 10

func Password(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), Cost)
}

func Verify(plain string, passHash []byte) bool {
	return bcrypt.CompareHashAndPassword(passHash, []byte(plain)) == nil
}
