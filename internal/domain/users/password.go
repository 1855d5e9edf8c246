package users

import "golang.org/x/crypto/bcrypt"

// HashPassword — bcrypt со встроенной солью; одинаковые пароли дают
// разные хэши.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword сравнивает пароль с хэшем, не раскрывая причину отказа.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
