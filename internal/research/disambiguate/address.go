package disambiguate

import (
	"net/url"
	"regexp"
	"strings"

	"business-research/internal/models"

	"golang.org/x/net/publicsuffix"
)

// Search listings sometimes carry a tenure claim or a bare "City, ST" in the
// address slot. Such addresses are kept but flagged.
var poorAddressPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+\+? years? in business`),
	regexp.MustCompile(`⋅`),
	regexp.MustCompile(`(?i)^\w+,\s*\w{2}$`),
}

func AssessAddress(address string) models.AddressQuality {
	address = strings.TrimSpace(address)
	if address == "" {
		return models.AddressQualityUnknown
	}
	for _, p := range poorAddressPatterns {
		if p.MatchString(address) {
			return models.AddressQualityPoor
		}
	}
	return models.AddressQualityGood
}

// NormalizeDomain reduces a website to its registrable domain, lowercased and
// without scheme, www or path. Unparseable input yields "".
func NormalizeDomain(website string) string {
	website = strings.ToLower(strings.TrimSpace(website))
	if website == "" {
		return ""
	}
	if !strings.Contains(website, "://") {
		website = "http://" + website
	}
	u, err := url.Parse(website)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host == "" {
		return ""
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return registrable
}
