package urlsafety

import (
	"context"
	"fmt"
	"net"

	"github.com/yl2chen/cidranger"
)

// reservedCIDRs is the set spec.md §4.1 names: loopback, link-local,
// unique-local, private, multicast, broadcast, and the cloud metadata
// address. cidranger gives us O(log n) longest-prefix containment checks
// instead of a linear scan over net.ParseCIDR ranges on every request.
var reservedCIDRs = []string{
	// IPv4
	"127.0.0.0/8",    // loopback
	"10.0.0.0/8",     // private
	"172.16.0.0/12",  // private
	"192.168.0.0/16", // private
	"169.254.0.0/16", // link-local (also covers the 169.254.169.254 metadata address)
	"224.0.0.0/4",    // multicast
	"255.255.255.255/32",
	"0.0.0.0/8",
	// IPv6
	"::1/128",    // loopback
	"fe80::/10",  // link-local
	"fc00::/7",   // unique-local
	"ff00::/8",   // multicast
}

// SafetyGate rejects SSRF-hazardous hosts. It owns the resolver used for
// the safety check. The resolved address set is not cached or handed on:
// the crawler and the reputation clients resolve hosts again on their own
// and do not re-run this check.
type SafetyGate struct {
	ranger   cidranger.Ranger
	resolver *net.Resolver
}

// NewSafetyGate builds the CIDR-containment ranger once at boot.
func NewSafetyGate(resolver *net.Resolver) (*SafetyGate, error) {
	ranger := cidranger.NewPCTrieRanger()
	for _, cidr := range reservedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("parsing reserved cidr %s: %w", cidr, err)
		}
		if err := ranger.Insert(cidranger.NewBasicRangerEntry(*network)); err != nil {
			return nil, fmt.Errorf("inserting reserved cidr %s: %w", cidr, err)
		}
	}
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &SafetyGate{ranger: ranger, resolver: resolver}, nil
}

// Check resolves host (or parses it as a literal) and rejects it if any
// resolved address falls in a reserved range; a host that cannot be resolved
// is rejected too. Check returns nil on success; ResolvedAddrs gives the
// addresses themselves.
func (g *SafetyGate) Check(host string) error {
	addrs, err := g.ResolvedAddrs(context.Background(), host)
	if err != nil {
		return &ErrBlockedTarget{Reason: fmt.Sprintf("resolution failed: %v", err)}
	}
	for _, ip := range addrs {
		blocked, err := g.ranger.Contains(ip)
		if err != nil {
			return &ErrBlockedTarget{Reason: fmt.Sprintf("range check failed: %v", err)}
		}
		if blocked {
			return &ErrBlockedTarget{Reason: fmt.Sprintf("%s resolves to reserved address %s", host, ip)}
		}
	}
	return nil
}

// ResolvedAddrs returns the IP literal (if host is one) or the resolver's
// address set for host, for reuse by downstream fetchers.
func (g *SafetyGate) ResolvedAddrs(ctx context.Context, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}
	ips, err := g.resolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}
	return ips, nil
}
