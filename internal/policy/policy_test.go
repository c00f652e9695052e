package policy

import (
	"testing"

	"github.com/arborhq/arbor/internal/model"
)

func TestDecide(t *testing.T) {
	if got := Decide(model.SettingPublic); got != Direct {
		t.Fatalf("public gate: got %v, want Direct", got)
	}
	if got := Decide(model.SettingPrivate); got != RequiresApproval {
		t.Fatalf("private gate: got %v, want RequiresApproval", got)
	}
	// Anything that is not explicitly public requires approval.
	if got := Decide(model.Setting("")); got != RequiresApproval {
		t.Fatalf("empty gate: got %v, want RequiresApproval", got)
	}
}
