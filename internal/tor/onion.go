package tor

import (
	"encoding/base32"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// OnionSuffix is the common suffix for all onion addresses.
const OnionSuffix = ".onion"

const onionV3Version = 0x03

var (
	onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)
	// v2 services stopped resolving in October 2021.
	onionV2Pattern = regexp.MustCompile(`^[a-z2-7]{16}\.onion$`)
)

// checksumPrefix is fixed by the rendezvous specification.
var checksumPrefix = []byte(".onion checksum")

// IsValidV3Address reports whether address is a v3 onion host with a correct
// checksum. The ".onion" suffix is required.
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)
	if !onionV3Pattern.MatchString(address) {
		return false
	}

	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(strings.TrimSuffix(address, OnionSuffix)))
	if err != nil || len(decoded) != 35 {
		return false
	}

	pubkey, checksum, version := decoded[:32], decoded[32:34], decoded[34]
	if version != onionV3Version {
		return false
	}

	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)
	sum := sha3.Sum256(data)

	return checksum[0] == sum[0] && checksum[1] == sum[1]
}

// IsV2Address reports whether address has the retired v2 format.
func IsV2Address(address string) bool {
	return onionV2Pattern.MatchString(strings.ToLower(address))
}

// IsOnionURL reports whether rawURL points to a hidden service.
func IsOnionURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Hostname()), OnionSuffix)
}

// SiteProblem classifies why a static site cannot be reached over Tor.
type SiteProblem string

// Site problems reported by AuditSites.
const (
	SiteUnparsable    SiteProblem = "unparsable url"
	SiteLegacyV2      SiteProblem = "retired v2 onion address"
	SiteBadV3Checksum SiteProblem = "invalid v3 onion address"
)

// SiteIssue is one finding of AuditSites.
type SiteIssue struct {
	URL     string
	Problem SiteProblem
}

// AuditSites checks the static site list for onion hosts that can never
// answer. Clearnet URLs are not checked.
func AuditSites(sites []string) []SiteIssue {
	var issues []SiteIssue
	for _, site := range sites {
		u, err := url.Parse(site)
		if err != nil || u.Host == "" {
			issues = append(issues, SiteIssue{URL: site, Problem: SiteUnparsable})
			continue
		}
		host := strings.ToLower(u.Hostname())
		if !strings.HasSuffix(host, OnionSuffix) {
			continue
		}
		switch {
		case IsV2Address(host):
			issues = append(issues, SiteIssue{URL: site, Problem: SiteLegacyV2})
		case !IsValidV3Address(host):
			issues = append(issues, SiteIssue{URL: site, Problem: SiteBadV3Checksum})
		}
	}
	return issues
}
