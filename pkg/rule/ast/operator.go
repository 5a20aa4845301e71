package ast

// Operator is a named comparison or containment primitive.
type Operator int

const (
	Eq Operator = iota + 1 // equal
	Gt                     // greater than
	Lt                     // less than
	Ge                     // greater than or equal
	Le                     // less than or equal
	In                     // equal to one of the list
	Any                    // contains any of the list
	All                    // contains all of the list
	Hd                     // starts with
	Td                     // ends with
)

var operatorNames = map[Operator]string{
	Eq:  "eq",
	Gt:  "gt",
	Lt:  "lt",
	Ge:  "ge",
	Le:  "le",
	In:  "in",
	Any: "any",
	All: "all",
	Hd:  "hd",
	Td:  "td",
}

var operatorsByName = map[string]Operator{
	"eq":  Eq,
	"gt":  Gt,
	"lt":  Lt,
	"ge":  Ge,
	"le":  Le,
	"in":  In,
	"any": Any,
	"all": All,
	"hd":  Hd,
	"td":  Td,
}

// String returns the snake_case form of the operator.
func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return "<unknown operator>"
}

// ParseOperator converts the snake_case form into an Operator.
func ParseOperator(s string) (Operator, bool) {
	o, ok := operatorsByName[s]
	return o, ok
}

// OperatorNames returns the external form of every operator.
func OperatorNames() []string {
	names := make([]string, 0, len(operatorNames))
	for o := Eq; o <= Td; o++ {
		names = append(names, operatorNames[o])
	}
	return names
}
