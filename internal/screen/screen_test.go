package screen

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	wrapped := fmt.Errorf("delete: %w", NotFound("Report not found.", base))

	if got := KindOf(wrapped); got != KindNotFound {
		t.Fatalf("KindOf = %s, want not_found", got)
	}
	if !errors.Is(wrapped, base) {
		t.Fatal("cause must stay reachable through Unwrap")
	}
	if got := Message(wrapped); got != "Report not found." {
		t.Fatalf("Message = %q", got)
	}
	if got := KindOf(base); got != KindUnknown {
		t.Fatalf("plain error kind = %s", got)
	}
}
