// Package allowlist implements the Allowlist Hook (C9): invoked before
// account creation with a proposed email, it accepts by domain suffix or by
// exact address.
package allowlist

import "strings"

// ErrSignupRestricted is the stable error message returned on rejection.
const ErrSignupRestricted = "Signup is restricted to invited users. Please contact an administrator."

// Hook holds the configured domain and exact-address allowlists.
type Hook struct {
	domains []string
	emails  map[string]struct{}
}

// New builds a Hook from comma-separated configuration lists (already split
// by config.GetEnvList). Domains are normalised to not carry a leading '@'.
func New(domains, emails []string) *Hook {
	normalizedDomains := make([]string, 0, len(domains))
	for _, d := range domains {
		normalizedDomains = append(normalizedDomains, strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "@"))
	}

	emailSet := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		emailSet[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}

	return &Hook{domains: normalizedDomains, emails: emailSet}
}

// Allow reports whether email may proceed with account creation.
func (h *Hook) Allow(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, ok := h.emails[email]; ok {
		return true
	}

	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]

	for _, d := range h.domains {
		if domain == d {
			return true
		}
	}
	return false
}
