package skincache

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
)

// Resources cached by the server.
const (
	ResourceSkins         = "skins"
	ResourceUserInventory = "user_inventory"
)

// Key identifies a cached read. Resource and Scope are kept verbatim so prefix sweeps stay
// structural; Params are hashed so their formatting can never collide with the prefix.
type Key struct {
	Resource string
	Scope    string
	Params   map[string]string
}

// String renders the storage key: resource:scope:<sha1 of canonical params>.
func (k Key) String() string {
	return k.Prefix().String() + hashParams(k.Params)
}

// Prefix returns the sweep prefix covering every key with the same resource and scope.
func (k Key) Prefix() Prefix {
	return Prefix{Resource: k.Resource, Scope: k.Scope}
}

// Prefix selects keys for invalidation. An empty Scope matches every scope of Resource.
type Prefix struct {
	Resource string
	Scope    string
}

func (p Prefix) String() string {
	if p.Scope == "" {
		return p.Resource + ":"
	}
	return p.Resource + ":" + p.Scope + ":"
}

func hashParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte(0)
		b.WriteString(params[k])
		b.WriteByte(0)
	}
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
