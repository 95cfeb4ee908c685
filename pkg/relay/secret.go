package relay

// secretPolicyMessage is surfaced verbatim when an install or uninstall
// is attempted with a secret token that fails the policy below.
const secretPolicyMessage = "密钥长度必须大于15位，且必须同时包含大写字母、小写字母和数字"

// ValidSecretToken reports whether s is acceptable as a webhook secret
// token: longer than 15 characters with at least one uppercase letter,
// one lowercase letter and one digit.
func ValidSecretToken(s string) bool {
	if len(s) <= 15 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}
