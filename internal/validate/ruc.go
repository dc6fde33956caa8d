package validate

import (
	"strconv"
	"strings"
	"unicode"
)

// RUC checks the basic format of an Ecuadorian RUC: exactly 13 digits, the
// "001" main-establishment suffix, and a province code between 1 and 24.
// It does not verify the check digit.
func RUC(ruc string) bool {
	digits := digitsOnly(ruc)
	if len(digits) != 13 {
		return false
	}
	if !strings.HasSuffix(digits, "001") {
		return false
	}

	province, err := strconv.Atoi(digits[:2])
	if err != nil {
		return false
	}
	return province >= 1 && province <= 24
}

func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
