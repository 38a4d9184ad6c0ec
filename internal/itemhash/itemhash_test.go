package itemhash_test

import (
	"strings"
	"testing"

	"bazaar/internal/itemhash"
)

func TestComputeIgnoresStackSize(t *testing.T) {
	a := itemhash.Item{Kind: "stone", Amount: 1}
	b := itemhash.Item{Kind: "stone", Amount: 64}

	if itemhash.Compute(a) != itemhash.Compute(b) {
		t.Fatal("identity must not depend on stack size")
	}
}

func TestComputeDiffersOnMetadata(t *testing.T) {
	base := itemhash.Item{Kind: "sword", Name: "Cleaver", Attrs: map[string]string{"sharpness": "3"}, Amount: 1}

	variants := []itemhash.Item{
		{Kind: "axe", Name: "Cleaver", Attrs: map[string]string{"sharpness": "3"}, Amount: 1},
		{Kind: "sword", Name: "Slicer", Attrs: map[string]string{"sharpness": "3"}, Amount: 1},
		{Kind: "sword", Name: "Cleaver", Attrs: map[string]string{"sharpness": "4"}, Amount: 1},
		{Kind: "sword", Name: "Cleaver", Amount: 1},
	}

	want := itemhash.Compute(base)
	for i, v := range variants {
		if itemhash.Compute(v) == want {
			t.Fatalf("variant %d must hash differently", i)
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	it := itemhash.Item{Kind: "potion", Attrs: map[string]string{"effect": "speed", "duration": "180", "level": "2"}, Amount: 3}

	first := itemhash.Compute(it)
	for i := 0; i < 50; i++ {
		if got := itemhash.Compute(it); got != first {
			t.Fatalf("hash not stable on run %d: %s != %s", i, got, first)
		}
	}
	if first.Version != itemhash.FormatVersion {
		t.Fatalf("version = %d, want %d", first.Version, itemhash.FormatVersion)
	}
	if len(first.Hash) != 64 {
		t.Fatalf("hash %q is not sha256 hex", first.Hash)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	it := itemhash.Item{Kind: "book", Name: "Guide", Attrs: map[string]string{"author": "anon"}, Amount: 7}

	data, err := itemhash.Serialize(it)
	if err != nil {
		t.Fatal(err)
	}
	got, err := itemhash.Deserialize(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != it.Kind || got.Name != it.Name || got.Amount != it.Amount || got.Attrs["author"] != "anon" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestParseIdentity(t *testing.T) {
	id := itemhash.Compute(itemhash.Item{Kind: "stone", Amount: 1})

	parsed, err := itemhash.Parse(id.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed != id {
		t.Fatalf("parse(%q) = %+v, want %+v", id.String(), parsed, id)
	}

	if _, err := itemhash.Parse("garbage"); err == nil {
		t.Fatal("expected error for malformed identity")
	}
}

func TestParseRejectsMalformedHashes(t *testing.T) {
	valid := itemhash.Compute(itemhash.Item{Kind: "stone", Amount: 1})

	bad := []string{
		"",
		"v1:",
		"v1:abc",
		"v1:abc def",
		valid.String() + " trailing",
		"v1:" + strings.ToUpper(valid.Hash),
		"v1:" + valid.Hash[:63] + "g",
		"v0:" + valid.Hash,
		"vx:" + valid.Hash,
		valid.Hash,
	}
	for _, s := range bad {
		if _, err := itemhash.Parse(s); err == nil {
			t.Fatalf("Parse(%q) must fail", s)
		}
	}
}
