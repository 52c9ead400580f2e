package resolver

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/VividCortex/ewma"
	"github.com/jedisct1/dlog"
)

const rttEwmaDecay = 10.0

type serverInfo struct {
	addr       string
	rtt        ewma.MovingAverage
	initialRtt int
}

// serversInfo keeps the configured name servers together with a moving
// RTT estimate per server.
type serversInfo struct {
	sync.RWMutex
	inner []*serverInfo
}

func newServersInfo() *serversInfo {
	return &serversInfo{}
}

func (si *serversInfo) register(addr string) {
	si.Lock()
	defer si.Unlock()
	for _, server := range si.inner {
		if server.addr == addr {
			return
		}
	}
	server := &serverInfo{addr: addr, rtt: ewma.NewMovingAverage(rttEwmaDecay)}
	server.initialRtt = 100
	server.rtt.Set(float64(server.initialRtt))
	si.inner = append(si.inner, server)
}

func (si *serversInfo) empty() bool {
	si.RLock()
	defer si.RUnlock()
	return len(si.inner) == 0
}

// order returns the addresses to try for one query: the configured
// order, a fresh random permutation, or fastest-first by observed RTT.
func (si *serversInfo) order(random, byRtt bool) []string {
	si.RLock()
	servers := make([]*serverInfo, len(si.inner))
	copy(servers, si.inner)
	si.RUnlock()
	switch {
	case random:
		rand.Shuffle(len(servers), func(i, j int) {
			servers[i], servers[j] = servers[j], servers[i]
		})
	case byRtt:
		sort.SliceStable(servers, func(i, j int) bool {
			return servers[i].rtt.Value() < servers[j].rtt.Value()
		})
	}
	addrs := make([]string, len(servers))
	for i, server := range servers {
		addrs[i] = server.addr
	}
	return addrs
}

func (si *serversInfo) recordRtt(addr string, elapsed time.Duration) {
	si.RLock()
	defer si.RUnlock()
	for _, server := range si.inner {
		if server.addr == addr {
			server.rtt.Add(float64(elapsed.Milliseconds()))
			dlog.Debugf("RTT for [%v]: %v ms (avg %.0f ms)",
				addr, elapsed.Milliseconds(), server.rtt.Value())
			return
		}
	}
}
