// Package audio provides the playback devices behind device.Stream. Each
// backend exposes a frame ring that the tick loop fills and the driver
// thread drains.
package audio

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cbegin/beatdrop-go/internal/device"
)

const (
	BackendEbiten = "ebiten"
	BackendOto    = "oto"
	BackendNull   = "null"
)

var backends = map[string]func() device.Backend{
	BackendEbiten: func() device.Backend { return newEbitenBackend() },
	BackendOto:    func() device.Backend { return newOtoBackend() },
	BackendNull:   func() device.Backend { return newNullBackend(nil) },
}

// Open is a device.Opener. "default" and "" select oto. Ebitengine and oto
// cannot share a process, so programs should stick to one of them.
func Open(name string) (device.Backend, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || key == "default" {
		key = BackendOto
	}
	mk, ok := backends[key]
	if !ok {
		return nil, fmt.Errorf("unknown audio backend %q (expected %s)", name, strings.Join(Names(), "|"))
	}
	return mk(), nil
}

// Names lists the registered backend names.
func Names() []string {
	out := make([]string, 0, len(backends))
	for k := range backends {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
