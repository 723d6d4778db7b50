package constraints

import "fmt"

// Rule selects how the timed values of a constraint are combined on read.
type Rule int

const (
	// GetFirst returns the oldest qualifying timed value.
	GetFirst Rule = iota
	// GetLast returns the newest qualifying timed value.
	GetLast
	// GetSum adds every qualifying timed value to the default.
	GetSum
)

var ruleNames = map[Rule]string{
	GetFirst: "GET_FIRST",
	GetLast:  "GET_LAST",
	GetSum:   "GET_SUM",
}

func (r Rule) String() string {
	if name, ok := ruleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("RULE_%d", int(r))
}

// ValueRule describes how a stored timed value evolves.
type ValueRule int

const (
	ValueFixed ValueRule = iota
	// ValueGetIncrement and ValueGetDecrement change the stored value every
	// time it is read.
	ValueGetIncrement
	ValueGetDecrement
	// ValueTurnIncrement and ValueTurnDecrement change the stored value at
	// each turn boundary the entry survives.
	ValueTurnIncrement
	ValueTurnDecrement
)

var valueRuleNames = map[ValueRule]string{
	ValueFixed:         "VALUE_FIXED",
	ValueGetIncrement:  "VALUE_GET_INCREMENT",
	ValueGetDecrement:  "VALUE_GET_DECREMENT",
	ValueTurnIncrement: "VALUE_TURN_INCREMENT",
	ValueTurnDecrement: "VALUE_TURN_DECREMENT",
}

func (v ValueRule) String() string {
	if name, ok := valueRuleNames[v]; ok {
		return name
	}
	return fmt.Sprintf("VALUE_%d", int(v))
}

// Definition is the static description of one constraint id.
type Definition struct {
	Name    string
	Default int
	Rule    Rule
	Value   ValueRule
}
