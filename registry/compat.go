package registry

import (
	"fmt"
	"strings"
)

// widenings lists the type changes a contract field may undergo without
// breaking readers of the previous revision. Everything else is an
// incompatible change.
var widenings = map[FieldType][]FieldType{
	TypeInt:    {TypeLong},
	TypeFloat:  {TypeDouble},
	TypeString: {TypeBytes},
	TypeBytes:  {TypeString},
}

func widens(from, to FieldType) bool {
	if from == to {
		return true
	}

	for _, t := range widenings[from] {
		if t == to {
			return true
		}
	}

	return false
}

// checkBackwardCompatible verifies that next can replace prev without
// breaking consumers of prev: required fields stay, types only widen,
// new fields are optional or carry a default, and no field tightens from
// optional to required. The returned error lists every violation.
func checkBackwardCompatible(prev, next Contract) error {
	prevFields := make(map[string]Field, len(prev.Fields))
	for _, f := range prev.Fields {
		prevFields[f.Name] = f
	}

	nextFields := make(map[string]Field, len(next.Fields))
	for _, f := range next.Fields {
		nextFields[f.Name] = f
	}

	var violations []string

	for _, pf := range prev.Fields {
		nf, kept := nextFields[pf.Name]

		if !kept {
			if pf.Required {
				violations = append(violations,
					fmt.Sprintf("required field %q was removed", pf.Name))
			}

			continue
		}

		if !widens(pf.Type, nf.Type) {
			violations = append(violations,
				fmt.Sprintf("field %q changed type %s -> %s", pf.Name, pf.Type, nf.Type))
		}

		if nf.Required && !pf.Required {
			violations = append(violations,
				fmt.Sprintf("field %q tightened from optional to required", pf.Name))
		}
	}

	for _, nf := range next.Fields {
		if _, existed := prevFields[nf.Name]; existed {
			continue
		}

		if nf.Required && !nf.HasDefault {
			violations = append(violations,
				fmt.Sprintf("new field %q must be optional or have a default", nf.Name))
		}
	}

	if len(violations) > 0 {
		return fmt.Errorf("%s", strings.Join(violations, "; "))
	}

	return nil
}
