package validators

import (
	"github.com/go-playground/validator/v10"
)

// MaxKeyAliasLength is the longest key alias accepted by the keystore.
const MaxKeyAliasLength = 128

// KeyAliasValidation validates that a key alias is printable ASCII without whitespace and
// at most MaxKeyAliasLength bytes long.
func KeyAliasValidation(fl validator.FieldLevel) bool {
	alias := fl.Field().String()
	if len(alias) == 0 || len(alias) > MaxKeyAliasLength {
		return false
	}

	for i := 0; i < len(alias); i++ {
		if c := alias[i]; c <= ' ' || c > '~' {
			return false
		}
	}
	return true
}
