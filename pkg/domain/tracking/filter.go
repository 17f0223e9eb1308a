package tracking

import "fmt"

// Property names of the Tracker database.
const (
	PropName        = "Name"
	PropStatus      = "Status"
	PropType        = "Type"
	PropIssueNumber = "GitHub Issue ID"
	PropIssueURL    = "GitHub URL"
	PropSource      = "Source"
	PropLastSynced  = "Last Synced"
)

// FilterOp is a predicate kind.
type FilterOp string

const (
	OpEquals     FilterOp = "equals"
	OpIsEmpty    FilterOp = "is_empty"
	OpIsNotEmpty FilterOp = "is_not_empty"
	OpAnd        FilterOp = "and"
	OpOr         FilterOp = "or"
)

// Filter is a query predicate over task properties. Leaf filters name a
// property; And/Or filters combine Children.
type Filter struct {
	Op       FilterOp
	Property string
	Value    any
	Children []Filter
}

// Equals matches tasks whose property equals value.
func Equals(property string, value any) Filter {
	return Filter{Op: OpEquals, Property: property, Value: value}
}

// IsEmpty matches tasks whose property is unset.
func IsEmpty(property string) Filter {
	return Filter{Op: OpIsEmpty, Property: property}
}

// IsNotEmpty matches tasks whose property is set.
func IsNotEmpty(property string) Filter {
	return Filter{Op: OpIsNotEmpty, Property: property}
}

// And matches when every child matches.
func And(children ...Filter) Filter {
	return Filter{Op: OpAnd, Children: children}
}

// Or matches when any child matches.
func Or(children ...Filter) Filter {
	return Filter{Op: OpOr, Children: children}
}

// Validate checks the filter tree is well formed.
func (f Filter) Validate() error {
	switch f.Op {
	case OpEquals:
		if f.Property == "" {
			return fmt.Errorf("filter %s: property is required", f.Op)
		}
		if f.Value == nil {
			return fmt.Errorf("filter %s on %q: value is required", f.Op, f.Property)
		}
	case OpIsEmpty, OpIsNotEmpty:
		if f.Property == "" {
			return fmt.Errorf("filter %s: property is required", f.Op)
		}
	case OpAnd, OpOr:
		if len(f.Children) == 0 {
			return fmt.Errorf("filter %s: at least one child is required", f.Op)
		}
		for _, c := range f.Children {
			if err := c.Validate(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown filter op %q", f.Op)
	}
	return nil
}
