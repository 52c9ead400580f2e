package resolver

import (
	"fmt"
	"net"
	"strings"

	"github.com/querist/dnsq/dnswire"
)

// Arpa builds the reverse-lookup name for an IP address:
// in-addr.arpa for IPv4, nibble-reversed ip6.arpa for IPv6.
func Arpa(ip net.IP) (string, error) {
	if v4 := ip.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.%d.in-addr.arpa", v4[3], v4[2], v4[1], v4[0]), nil
	}
	v6 := ip.To16()
	if v6 == nil {
		return "", &dnswire.Error{Kind: dnswire.KindRRInvalid, Message: "not an IP address"}
	}
	nibbles := make([]string, 0, 32)
	for i := len(v6) - 1; i >= 0; i-- {
		nibbles = append(nibbles,
			fmt.Sprintf("%x", v6[i]&0x0F),
			fmt.Sprintf("%x", v6[i]>>4))
	}
	return strings.Join(nibbles, ".") + ".ip6.arpa", nil
}

// QueryPTR resolves an IP address to its PTR names.
func (r *Resolver) QueryPTR(ip net.IP) (*dnswire.Msg, error) {
	name, err := Arpa(ip)
	if err != nil {
		return nil, err
	}
	return r.Query(name, dnswire.TypePTR)
}
