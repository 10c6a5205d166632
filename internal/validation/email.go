package validation

import (
	"slices"
	"strings"
)

var (
	gmailDomains   = []string{"gmail.com", "googlemail.com"}
	outlookDomains = []string{
		"hotmail.com", "hotmail.co.uk", "hotmail.fr", "hotmail.de", "hotmail.it",
		"live.com", "live.co.uk", "live.fr", "live.de", "live.it",
		"outlook.com", "outlook.co.uk", "outlook.fr", "outlook.de", "outlook.it",
		"msn.com", "passport.com", "windowslive.com",
	}
	yahooDomains = []string{
		"yahoo.com", "yahoo.co.uk", "yahoo.fr", "yahoo.de", "yahoo.it", "yahoo.co.in",
		"ymail.com", "rocketmail.com",
	}
	icloudDomains = []string{"icloud.com", "me.com", "mac.com"}
)

// NormalizeEmail canonicalizes an address: it trims and lower-cases it and
// strips provider-specific aliasing (gmail dots and +tags, outlook and icloud
// +tags, yahoo -tags). Input without exactly one '@' is only trimmed and
// lower-cased. Applying NormalizeEmail twice yields the same value.
func NormalizeEmail(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 || at == len(addr)-1 || strings.Count(addr, "@") != 1 {
		return addr
	}
	local, domain := addr[:at], addr[at+1:]

	switch {
	case slices.Contains(gmailDomains, domain):
		local = cutSubaddress(local, "+")
		local = strings.ReplaceAll(local, ".", "")
		domain = "gmail.com"
	case slices.Contains(outlookDomains, domain), slices.Contains(icloudDomains, domain):
		local = cutSubaddress(local, "+")
	case slices.Contains(yahooDomains, domain):
		local = cutSubaddress(local, "-")
	}

	if local == "" {
		return addr
	}
	return local + "@" + domain
}

func cutSubaddress(local, sep string) string {
	before, _, _ := strings.Cut(local, sep)
	return before
}
