package utils

import "strings"

// MaskEmail hides the middle of an address's local part for
// display: "frontdesk@example.com" -> "f***k@example.com". The
// first and last characters are kept; one-character locals keep
// only the first. Anything that does not look like an email masks
// to "***" entirely.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "***"
	}
	local, domain := email[:at], email[at+1:]
	if len(local) == 1 {
		return local + "***@" + domain
	}
	return local[:1] + "***" + local[len(local)-1:] + "@" + domain
}
