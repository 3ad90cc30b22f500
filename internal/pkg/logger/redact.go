package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "marie.dupont@example.org" → "ma***@example.org"
// Short local parts (≤2 chars) are fully masked: "md@example.org" → "***@example.org"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactPhone masks a phone number, keeping only the last two digits.
// "+33 1 45 00 38 00" → "***00"
func RedactPhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) < 2 {
		return "***"
	}
	return "***" + digits[len(digits)-2:]
}
