// Package policy evaluates container gate settings against requested
// link operations. It is pure: no storage access, no side effects.
package policy

import "github.com/arborhq/arbor/internal/model"

// Decision is the outcome of evaluating a gate.
type Decision int

const (
	// Direct means the operation may proceed immediately.
	Direct Decision = iota
	// RequiresApproval means a link request must be filed for the
	// gate owner to accept.
	RequiresApproval
)

func (d Decision) String() string {
	if d == RequiresApproval {
		return "requires-approval"
	}
	return "direct"
}

// Decide maps a gate setting to a decision: public gates link directly,
// anything else requires approval. Scope and Searching never gate linking.
func Decide(gate model.Setting) Decision {
	if gate == model.SettingPublic {
		return Direct
	}
	return RequiresApproval
}
