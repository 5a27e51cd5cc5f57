package agents

import "fmt"

// KinshipRule selects the relation predicate used to veto marriages.
type KinshipRule uint8

const (
	// KinshipSymmetric treats siblings, half-siblings and any parent-child
	// pair as related.
	KinshipSymmetric KinshipRule = iota
	// KinshipLegacy reproduces the historical model: siblings and half-siblings
	// are related, but the parent-child leg only looks at the father, so a
	// mother and her son are not considered related.
	KinshipLegacy
)

func (k KinshipRule) String() string {
	switch k {
	case KinshipLegacy:
		return "legacy"
	default:
		return "symmetric"
	}
}

// ParseKinshipRule parses "symmetric" or "legacy". The empty string selects
// the symmetric rule.
func ParseKinshipRule(s string) (KinshipRule, error) {
	switch s {
	case "", "symmetric":
		return KinshipSymmetric, nil
	case "legacy":
		return KinshipLegacy, nil
	}
	return KinshipSymmetric, fmt.Errorf("unknown kinship rule %q (want symmetric or legacy)", s)
}

// Related applies the rule to a and b.
func (k KinshipRule) Related(a, b *Person) bool {
	if k == KinshipLegacy {
		return RelatedLegacy(a, b)
	}
	return Related(a, b)
}

// Related reports whether a and b share a parent or one is a parent of the other.
func Related(a, b *Person) bool {
	if siblings(a, b) {
		return true
	}
	return isParent(a.Father, b) || isParent(a.Mother, b) ||
		isParent(b.Father, a) || isParent(b.Mother, a)
}

// RelatedLegacy is Related with the parent-child leg reduced to fathers.
func RelatedLegacy(a, b *Person) bool {
	if siblings(a, b) {
		return true
	}
	return isParent(a.Father, b) || isParent(b.Father, a)
}

func siblings(a, b *Person) bool {
	return a.Father == b.Father || a.Mother == b.Mother
}

// isParent reports whether ref points at p.
func isParent(ref ParentRef, p *Person) bool {
	id, ok := ref.Person()
	return ok && id == p.ID
}
