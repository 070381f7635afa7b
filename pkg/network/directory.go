package network

import (
	"net/netip"
	"sync"
)

// directory is the set of known peers keyed by address, in insertion order
type directory struct {
	mu      sync.RWMutex
	entries []PeerInfo
}

func newDirectory() *directory {
	return &directory{}
}

// upsert stores info and returns the entries sharing its nickname.
// It reports whether info was a new entry.
func (d *directory) upsert(info PeerInfo) (added bool, sameNickname []PeerInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()

	found := false
	for i, e := range d.entries {
		if e.Addr == info.Addr {
			d.entries[i] = info
			found = true
		} else if e.Nickname == info.Nickname {
			sameNickname = append(sameNickname, e)
		}
	}

	if !found {
		d.entries = append(d.entries, info)
	}
	return !found, sameNickname
}

// remove deletes addr, reporting whether it was present
func (d *directory) remove(addr netip.Addr) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, e := range d.entries {
		if e.Addr == addr {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return true
		}
	}
	return false
}

// clear forgets every peer
func (d *directory) clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = nil
}

func (d *directory) lookup(addr netip.Addr) (PeerInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, e := range d.entries {
		if e.Addr == addr {
			return e, true
		}
	}
	return PeerInfo{}, false
}

// nickname returns the nickname of addr, or "" if unknown
func (d *directory) nickname(addr netip.Addr) string {
	info, _ := d.lookup(addr)
	return info.Nickname
}

func (d *directory) snapshot() []PeerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]PeerInfo, len(d.entries))
	copy(out, d.entries)
	return out
}

func (d *directory) len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}
