package resolver

import (
	"strings"

	"github.com/querist/dnsq/dnswire"
)

// Updater accumulates an RFC 2136 dynamic update for one zone. The
// zone travels in the question section; prerequisites land in the
// answer section and changes in the authority section. Send signs the
// request with whatever key the resolver carries.
type Updater struct {
	r   *Resolver
	msg *dnswire.Msg
}

// NewUpdate starts an update transaction against zone.
func (r *Resolver) NewUpdate(zone string) *Updater {
	msg := new(dnswire.Msg)
	msg.SetUpdate(strings.TrimSuffix(zone, "."))
	return &Updater{r: r, msg: msg}
}

// Add inserts a record into the zone.
func (u *Updater) Add(rr dnswire.RR) *Updater {
	u.msg.Ns = append(u.msg.Ns, rr)
	return u
}

// Delete removes records matching rr's name, type and rdata. Class
// NONE and TTL 0 select rdata-exact deletion (RFC 2136 §2.5.4).
func (u *Updater) Delete(rr dnswire.RR) *Updater {
	hdr := rr.Header()
	hdr.Class = dnswire.ClassNONE
	hdr.TTL = 0
	u.msg.Ns = append(u.msg.Ns, rr)
	return u
}

// DeleteRRset removes every record of a type at a name.
func (u *Updater) DeleteRRset(name string, rrtype uint16) *Updater {
	u.msg.Ns = append(u.msg.Ns, &dnswire.Unknown{RRHeader: dnswire.RRHeader{
		Name: strings.TrimSuffix(name, "."), Type: rrtype, Class: dnswire.ClassANY,
	}})
	return u
}

// DeleteName removes every record at a name.
func (u *Updater) DeleteName(name string) *Updater {
	return u.DeleteRRset(name, dnswire.TypeANY)
}

// RequireNameInUse asserts that at least one record exists at name.
func (u *Updater) RequireNameInUse(name string) *Updater {
	u.msg.Answer = append(u.msg.Answer, &dnswire.Unknown{RRHeader: dnswire.RRHeader{
		Name: strings.TrimSuffix(name, "."), Type: dnswire.TypeANY, Class: dnswire.ClassANY,
	}})
	return u
}

// RequireNameNotInUse asserts that no record exists at name.
func (u *Updater) RequireNameNotInUse(name string) *Updater {
	u.msg.Answer = append(u.msg.Answer, &dnswire.Unknown{RRHeader: dnswire.RRHeader{
		Name: strings.TrimSuffix(name, "."), Type: dnswire.TypeANY, Class: dnswire.ClassNONE,
	}})
	return u
}

// RequireRRset asserts that at least one record of rrtype exists at
// name, independent of rdata.
func (u *Updater) RequireRRset(name string, rrtype uint16) *Updater {
	u.msg.Answer = append(u.msg.Answer, &dnswire.Unknown{RRHeader: dnswire.RRHeader{
		Name: strings.TrimSuffix(name, "."), Type: rrtype, Class: dnswire.ClassANY,
	}})
	return u
}

// RequireNoRRset asserts that no record of rrtype exists at name.
func (u *Updater) RequireNoRRset(name string, rrtype uint16) *Updater {
	u.msg.Answer = append(u.msg.Answer, &dnswire.Unknown{RRHeader: dnswire.RRHeader{
		Name: strings.TrimSuffix(name, "."), Type: rrtype, Class: dnswire.ClassNONE,
	}})
	return u
}

// RequireRR asserts that an RRset exactly matching rr exists (class and
// TTL are rewritten per RFC 2136 §2.4.2).
func (u *Updater) RequireRR(rr dnswire.RR) *Updater {
	hdr := rr.Header()
	hdr.Class = u.msg.Question[0].Qclass
	hdr.TTL = 0
	u.msg.Answer = append(u.msg.Answer, rr)
	return u
}

// Msg exposes the accumulated update message, mainly for inspection in
// tests.
func (u *Updater) Msg() *dnswire.Msg { return u.msg }

// Send transmits the update and returns the server's response.
func (u *Updater) Send() (*dnswire.Msg, error) {
	return u.r.Exchange(u.msg)
}
