package inspector

import (
	"fmt"
	"net"
	"strings"

	"github.com/miekg/dns"
)

// DomainName is a validated host name or IP literal. It never carries a
// scheme, path or port.
type DomainName string

// String returns the domain as a plain string
func (d DomainName) String() string {
	return string(d)
}

// IsIP reports whether the domain is an IP literal
func (d DomainName) IsIP() bool {
	return net.ParseIP(string(d)) != nil
}

// ParseDomain validates raw user input and returns it as a DomainName
func ParseDomain(raw string) (DomainName, error) {
	host := strings.TrimSpace(raw)
	if host == "" {
		return "", newError(KindInvalidDomain, "", fmt.Errorf("domain is required"))
	}

	if strings.Contains(host, "://") {
		return "", newError(KindInvalidDomain, DomainName(host),
			fmt.Errorf("domain should not include a scheme (use 'example.com' not 'https://example.com')"))
	}

	if strings.ContainsAny(host, "/?# \t\r\n") {
		return "", newError(KindInvalidDomain, DomainName(host), fmt.Errorf("domain cannot contain a path or whitespace"))
	}

	if ip := net.ParseIP(host); ip != nil {
		return DomainName(ip.String()), nil
	}

	if strings.Contains(host, ":") {
		return "", newError(KindInvalidDomain, DomainName(host), fmt.Errorf("domain cannot contain a port"))
	}

	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if _, ok := dns.IsDomainName(host); !ok || host == "" || strings.Contains(host, "*") {
		return "", newError(KindInvalidDomain, DomainName(host), fmt.Errorf("not a valid DNS name"))
	}

	return DomainName(host), nil
}
