package crawl

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"syscall"
	"time"
)

var errBlockedAddress = errors.New("crawl: address is not publicly routable")

// Ranges that netip.Addr's predicates do not already cover.
var nonPublicRanges = []netip.Prefix{
	netip.MustParsePrefix("100.64.0.0/10"),   // shared address space, RFC 6598
	netip.MustParsePrefix("192.0.0.0/24"),    // IETF protocol assignments, RFC 6890
	netip.MustParsePrefix("192.0.2.0/24"),    // documentation, RFC 5737
	netip.MustParsePrefix("198.18.0.0/15"),   // benchmarking, RFC 2544
	netip.MustParsePrefix("198.51.100.0/24"), // documentation, RFC 5737
	netip.MustParsePrefix("203.0.113.0/24"),  // documentation, RFC 5737
}

// addrPolicy decides whether the crawler may connect to a resolved address.
type addrPolicy func(netip.Addr) bool

// publicOnly admits globally routable unicast addresses outside the private
// and reserved ranges. IPv4-mapped IPv6 addresses are judged as IPv4.
func publicOnly(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return false
	}
	for _, p := range nonPublicRanges {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

// newDialer applies allow after DNS resolution, so a hostname that
// re-resolves to an internal address is still refused.
func newDialer(allow addrPolicy) *net.Dialer {
	return &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			return checkAddress(allow, address)
		},
	}
}

func checkAddress(allow addrPolicy, address string) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %w", errBlockedAddress, err)
	}
	if !allow(ap.Addr()) {
		return fmt.Errorf("%w: %s", errBlockedAddress, ap.Addr())
	}
	return nil
}
