package resolver

import (
	"bufio"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/jedisct1/dlog"

	"github.com/querist/dnsq/dnswire"
)

// ResolvConf is the subset of resolv.conf(5) the resolver consumes.
type ResolvConf struct {
	Nameservers []string
	Domain      string
	SearchList  []string
	Timeout     int // seconds, 0 when absent
	Rotate      bool
	Attempts    int
}

// ParseResolvConfFile reads and parses a resolv.conf style file.
func ParseResolvConfFile(path string) (*ResolvConf, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &dnswire.Error{Kind: dnswire.KindNSFile, Message: path, Err: err}
	}
	defer f.Close()
	return ParseResolvConf(f)
}

// ParseResolvConf parses line-oriented resolv.conf text: comment lines
// start with '#' or ';'; recognized directives are nameserver, domain,
// search and options (timeout:N clamped to 1..30, rotate, attempts:N).
func ParseResolvConf(r io.Reader) (*ResolvConf, error) {
	rc := &ResolvConf{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "nameserver":
			if net.ParseIP(fields[1]) == nil {
				dlog.Warnf("ignoring bad nameserver line [%v]", line)
				continue
			}
			rc.Nameservers = append(rc.Nameservers, fields[1])
		case "domain":
			rc.Domain = strings.TrimSuffix(fields[1], ".")
		case "search":
			rc.SearchList = rc.SearchList[:0]
			for _, s := range fields[1:] {
				rc.SearchList = append(rc.SearchList, strings.TrimSuffix(s, "."))
			}
		case "options":
			for _, opt := range fields[1:] {
				rc.applyOption(opt)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &dnswire.Error{Kind: dnswire.KindNSFile, Message: "resolv.conf", Err: err}
	}
	return rc, nil
}

func (rc *ResolvConf) applyOption(opt string) {
	name := opt
	value := ""
	if i := strings.IndexByte(opt, ':'); i >= 0 {
		name, value = opt[:i], opt[i+1:]
	}
	switch name {
	case "timeout":
		n, err := strconv.Atoi(value)
		if err != nil {
			return
		}
		if n < 1 {
			n = 1
		}
		if n > 30 {
			n = 30
		}
		rc.Timeout = n
	case "rotate":
		rc.Rotate = true
	case "attempts":
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			rc.Attempts = n
		}
	}
}

// mergeInto folds the parsed file into a configuration. Nameservers,
// domain and search list fill only fields that are still empty; a
// timeout, rotate or attempts option in the file always replaces the
// configuration's value.
func (rc *ResolvConf) mergeInto(cfg *Config) {
	if len(cfg.Nameservers) == 0 {
		cfg.Nameservers = append(cfg.Nameservers, rc.Nameservers...)
	}
	if cfg.Domain == "" {
		cfg.Domain = rc.Domain
	}
	if len(cfg.SearchList) == 0 {
		cfg.SearchList = append(cfg.SearchList, rc.SearchList...)
	}
	if rc.Timeout > 0 {
		cfg.Timeout = rc.Timeout
	}
	if rc.Rotate {
		cfg.NSRandom = true
	}
	if rc.Attempts > 0 {
		cfg.Attempts = rc.Attempts
	}
}
