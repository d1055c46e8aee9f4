package clipboard_test

import (
	"testing"

	"github.com/temirov/stitch/internal/services/clipboard"
)

func TestMemoryKeepsLastCopy(t *testing.T) {
	t.Parallel()

	memory := &clipboard.Memory{}
	for _, text := range []string{"first", "second"} {
		if err := memory.Copy(text); err != nil {
			t.Fatalf("Copy error: %v", err)
		}
	}
	text, count := memory.Text()
	if text != "second" || count != 2 {
		t.Fatalf("Text() = %q, %d", text, count)
	}
}
