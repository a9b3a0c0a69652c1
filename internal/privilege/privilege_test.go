package privilege

import (
	"errors"
	"testing"
)

func TestRequireRoot(t *testing.T) {
	if err := RequireRoot(0); err != nil {
		t.Fatalf("expected root to pass, got %v", err)
	}
	for _, uid := range []int{1, 1000, 65534} {
		if err := RequireRoot(uid); !errors.Is(err, ErrNotRoot) {
			t.Fatalf("uid %d: expected ErrNotRoot, got %v", uid, err)
		}
	}
}
