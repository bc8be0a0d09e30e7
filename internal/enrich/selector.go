package enrich

import (
	"regexp"
	"sort"
	"strings"
)

var validEmail = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// genericPrefixes mark automated or role mailboxes.
var genericPrefixes = []string{
	"noreply", "no-reply", "donotreply", "do-not-reply",
	"automated", "system", "bot", "mailer", "daemon",
	"postmaster", "webmaster", "admin",
}

// ValidEmail reports whether email is syntactically acceptable.
func ValidEmail(email string) bool {
	return validEmail.MatchString(email)
}

// IsGeneric reports whether the local part contains a generic marker.
func IsGeneric(email string) bool {
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	for _, p := range genericPrefixes {
		if strings.Contains(local, p) {
			return true
		}
	}
	return false
}

// ChooseBest returns the first valid non-generic address in sorted order,
// else the first valid address.
func ChooseBest(emails []string) (string, bool) {
	sorted := append([]string(nil), emails...)
	sort.Strings(sorted)

	fallback := ""
	for _, e := range sorted {
		if !ValidEmail(e) {
			continue
		}
		if !IsGeneric(e) {
			return e, true
		}
		if fallback == "" {
			fallback = e
		}
	}
	return fallback, fallback != ""
}
