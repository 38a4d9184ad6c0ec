package itemhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FormatVersion is bumped whenever the canonical serialization changes.
// Stored rows carry the version they were hashed under, and lookups only
// match within the same version.
const FormatVersion = 1

// Item is the descriptive form of a sellable unit. Amount is the stack
// size and is excluded from identity.
type Item struct {
	Kind   string            `json:"kind"`
	Name   string            `json:"name,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
	Amount int               `json:"amount"`
}

// Identity is the content-derived join key between listings, blacklist
// entries and fee overrides.
type Identity struct {
	Version int    `json:"version"`
	Hash    string `json:"hash"`
}

func (id Identity) String() string {
	return fmt.Sprintf("v%d:%s", id.Version, id.Hash)
}

// Compute derives the identity of an item. The stack size is normalized to
// one unit first, so a single stone and a stack of 64 hash identically;
// any difference in kind, name or attributes produces a different hash.
func Compute(it Item) Identity {
	one := it
	one.Amount = 1
	// json.Marshal writes struct fields in declaration order and map keys
	// sorted, so the serialization is deterministic.
	raw, err := json.Marshal(one)
	if err != nil {
		// Item contains only strings, string maps and ints.
		panic(fmt.Sprintf("itemhash: marshal: %v", err))
	}
	sum := sha256.Sum256(raw)
	return Identity{Version: FormatVersion, Hash: hex.EncodeToString(sum[:])}
}

// Serialize renders the full item, stack size included, as the opaque
// listing payload.
func Serialize(it Item) (string, error) {
	raw, err := json.Marshal(it)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func Deserialize(data string) (Item, error) {
	var it Item
	if err := json.Unmarshal([]byte(data), &it); err != nil {
		return Item{}, fmt.Errorf("itemhash: decode payload: %w", err)
	}
	return it, nil
}

// Parse reads an identity in "v<version>:<hex>" form. The hash part must
// be exactly 64 lowercase hex characters; anything else, including
// trailing input, is rejected.
func Parse(s string) (Identity, error) {
	rest, ok := strings.CutPrefix(s, "v")
	if !ok {
		return Identity{}, fmt.Errorf("itemhash: parse %q: missing version prefix", s)
	}
	verStr, hash, ok := strings.Cut(rest, ":")
	if !ok {
		return Identity{}, fmt.Errorf("itemhash: parse %q: missing hash separator", s)
	}
	version, err := strconv.Atoi(verStr)
	if err != nil || version < 1 {
		return Identity{}, fmt.Errorf("itemhash: parse %q: bad version", s)
	}
	if len(hash) != 64 {
		return Identity{}, fmt.Errorf("itemhash: parse %q: hash must be 64 hex characters", s)
	}
	for _, r := range hash {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return Identity{}, fmt.Errorf("itemhash: parse %q: hash must be lowercase hex", s)
		}
	}
	return Identity{Version: version, Hash: hash}, nil
}
