package utils

import (
	"strings"
	"testing"
)

func TestNewItemID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewItemID(8)
		if len(id) != 8 {
			t.Fatalf("NewItemID(8) = %q, want 8 characters", id)
		}
		for _, r := range id {
			if !strings.ContainsRune(idAlphabet, r) {
				t.Fatalf("NewItemID(8) = %q contains %q", id, r)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}

	if got := NewItemID(0); got != "" {
		t.Errorf("NewItemID(0) = %q, want empty", got)
	}
}
