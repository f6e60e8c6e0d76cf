package queryir

import (
	"fmt"
)

// Validate checks that a statement is well formed and only touches
// allow-listed columns. Rule width is checked when the rule is encoded.
func Validate(stmt Statement) error {
	switch s := stmt.(type) {
	case Insert:
		return nil
	case InsertBatch:
		if len(s.Rules) == 0 {
			return fmt.Errorf("insert batch: no rules")
		}
		return nil
	case Select:
		return validatePredicate(s.Where)
	case Delete:
		if s.Where == nil && !s.All {
			return fmt.Errorf("delete: missing predicate")
		}
		return validatePredicate(s.Where)
	case Update:
		if len(s.Set) == 0 {
			return fmt.Errorf("update: empty SET list")
		}
		if s.Where == nil {
			return fmt.Errorf("update: missing predicate")
		}
		return validatePredicate(s.Where)
	case nil:
		return fmt.Errorf("nil statement")
	default:
		return fmt.Errorf("unsupported statement type: %T", stmt)
	}
}

func validatePredicate(p Predicate) error {
	switch pred := p.(type) {
	case nil:
		return nil
	case Equals:
		return validateColumn(pred.Column)
	case IsEmpty:
		return validateColumn(pred.Column)
	case And:
		for _, sub := range pred.Predicates {
			if err := validatePredicate(sub); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func validateColumn(name string) error {
	if !IsColumn(name) {
		return fmt.Errorf("unknown column %q", name)
	}
	return nil
}
