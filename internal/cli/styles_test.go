package cli

import (
	"strings"
	"testing"

	"github.com/agusx1211/ambience/internal/soundscape"
)

func TestRenderRosterOrder(t *testing.T) {
	out := RenderRoster(soundscape.List())

	last := -1
	for _, info := range soundscape.List() {
		i := strings.Index(out, info.Label)
		if i < 0 {
			t.Fatalf("roster is missing %s", info.Label)
		}
		if i < last {
			t.Errorf("%s listed out of order", info.ID)
		}
		last = i
	}
	if !strings.Contains(out, "crackle") {
		t.Error("roster does not list layer names")
	}
}

func TestRenderVersion(t *testing.T) {
	if out := RenderVersion("1.2.3"); !strings.Contains(out, "ambience 1.2.3") {
		t.Errorf("RenderVersion = %q", out)
	}
}
