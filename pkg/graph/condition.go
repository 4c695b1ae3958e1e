package graph

// ConditionType tags the value space a condition compares within.
type ConditionType string

const (
	ConditionInt     ConditionType = "int"
	ConditionFloat   ConditionType = "float"
	ConditionBool    ConditionType = "bool"
	ConditionTrigger ConditionType = "trigger"
	ConditionString  ConditionType = "string"
)

// Condition is one guard on a connection: the transition fires only if
// the named parameter compares true against the value. Conditions are
// owned by their connection and copied by value on clone.
type Condition struct {
	Type     ConditionType `json:"type"`
	Key      string        `json:"key"`
	Operator string        `json:"operator"`
	Value    string        `json:"value"`
}

// NewCondition returns a condition with type-appropriate defaults.
// Boolean-like types default to equality against "true"; numeric types
// to equality against zero.
func NewCondition(t ConditionType) Condition {
	c := Condition{Type: t, Operator: "=="}
	switch t {
	case ConditionBool, ConditionTrigger:
		c.Value = "true"
	case ConditionInt:
		c.Value = "0"
	case ConditionFloat:
		c.Value = "0.0"
	default:
		c.Type = ConditionString
		c.Value = ""
	}
	return c
}

// Equal reports whether two conditions are the same guard.
func (c Condition) Equal(o Condition) bool {
	return c.Type == o.Type && c.Key == o.Key && c.Operator == o.Operator && c.Value == o.Value
}
