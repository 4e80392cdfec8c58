// Package validation checks service URL overrides before any credentials are
// sent to them.
//
// The Web API and accounts service roots can be redirected with --api-url,
// SPOTIFY_API_URL and SPOTIFY_ACCOUNTS_URL. An override must use https unless
// it points at the loopback interface, and may never target cloud metadata
// endpoints. Private networks are rejected unless SPOTIFY_ALLOW_PRIVATE is
// set (any value accepted by strconv.ParseBool) or SetAllowPrivate(true) is
// called.
package validation

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// EnvAllowPrivate permits overrides on private networks.
const EnvAllowPrivate = "SPOTIFY_ALLOW_PRIVATE"

const resolveTimeout = 3 * time.Second

var allowPrivate atomic.Bool

// privateNetworks holds the reserved ranges checked by isPrivateIP.
var privateNetworks []*net.IPNet

func init() {
	v, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvAllowPrivate)))
	allowPrivate.Store(v)

	for _, cidr := range []string{
		"10.0.0.0/8",      // RFC1918
		"172.16.0.0/12",   // RFC1918
		"192.168.0.0/16",  // RFC1918
		"100.64.0.0/10",   // RFC6598
		"192.0.0.0/24",    // RFC6890
		"192.0.2.0/24",    // RFC5737
		"198.18.0.0/15",   // RFC2544
		"198.51.100.0/24", // RFC5737
		"203.0.113.0/24",  // RFC5737
		"240.0.0.0/4",     // RFC1112
		"fc00::/7",        // RFC4193
		"100::/64",        // RFC6666
		"2001:db8::/32",   // RFC3849
	} {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		privateNetworks = append(privateNetworks, network)
	}
}

// SetAllowPrivate enables or disables overrides on private networks. Cloud
// metadata endpoints stay blocked either way.
func SetAllowPrivate(enabled bool) {
	allowPrivate.Store(enabled)
}

// AllowPrivateEnabled reports whether private networks are allowed.
func AllowPrivateEnabled() bool {
	return allowPrivate.Load()
}

// ValidateBaseURL checks a service root override. Domain names are resolved
// and every address must pass; a name that does not resolve is accepted so
// that offline configuration still works.
func ValidateBaseURL(ctx context.Context, rawURL string) error {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: only http and https are allowed, got %q", u.Scheme)
	}
	hostname := u.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL must contain a hostname")
	}
	if u.User != nil {
		return fmt.Errorf("URL must not contain credentials")
	}
	if isCloudMetadata(hostname) {
		return fmt.Errorf("cloud metadata endpoints are not allowed")
	}

	var ips []net.IP
	if ip := net.ParseIP(hostname); ip != nil {
		ips = []net.IP{ip}
	} else if isLocalhost(hostname) {
		ips = []net.IP{net.IPv4(127, 0, 0, 1)}
	} else {
		ips = resolve(ctx, hostname)
	}

	local := len(ips) > 0
	for _, ip := range ips {
		if err := validateIP(ip); err != nil {
			if net.ParseIP(hostname) != nil {
				return err
			}
			return fmt.Errorf("host %q resolves to forbidden IP %s: %w", hostname, ip, err)
		}
		local = local && (ip.IsLoopback() || isPrivateIP(ip))
	}

	if u.Scheme == "http" && !local {
		return fmt.Errorf("URL must use https (http is only allowed for loopback and allowed private hosts)")
	}
	return nil
}

func resolve(ctx context.Context, hostname string) []net.IP {
	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", hostname)
	if err != nil {
		return nil
	}
	return ips
}

func isLocalhost(hostname string) bool {
	h := strings.ToLower(strings.TrimSuffix(hostname, "."))
	return h == "localhost" || strings.HasSuffix(h, ".localhost")
}

func isCloudMetadata(hostname string) bool {
	h := strings.ToLower(strings.TrimSuffix(hostname, "."))
	switch h {
	case "169.254.169.254", "metadata.google.internal", "metadata", "instance-data", "fd00:ec2::254":
		return true
	}
	return strings.HasSuffix(h, ".metadata.google.internal")
}

// validateIP accepts loopback and public addresses, and private ones when
// allowed.
func validateIP(ip net.IP) error {
	switch {
	case ip.Equal(net.IPv4(169, 254, 169, 254)):
		return fmt.Errorf("cloud metadata IP address is not allowed")
	case ip.IsUnspecified():
		return fmt.Errorf("unspecified IP addresses are not allowed")
	case ip.IsLoopback():
		return nil
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast(), ip.IsMulticast():
		return fmt.Errorf("link-local and multicast IP addresses are not allowed")
	case isPrivateIP(ip) && !allowPrivate.Load():
		return fmt.Errorf("private IP addresses are not allowed (set %s to allow)", EnvAllowPrivate)
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
