package evaluator

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/toolbox"
)

// Operator is a comparison operator used by choice rules
type Operator string

const (
	Equal        Operator = "eq"
	NotEqual     Operator = "ne"
	Less         Operator = "lt"
	LessEqual    Operator = "le"
	Greater      Operator = "gt"
	GreaterEqual Operator = "ge"
	Exists       Operator = "exists"
)

// Valid returns true for supported operators
func (o Operator) Valid() bool {
	switch o.Normalize() {
	case Equal, NotEqual, Less, LessEqual, Greater, GreaterEqual, Exists:
		return true
	}
	return false
}

// Normalize maps symbolic and upper case spellings to the canonical operator
func (o Operator) Normalize() Operator {
	switch strings.ToLower(strings.TrimSpace(string(o))) {
	case "", "eq", "==", "=":
		return Equal
	case "ne", "!=", "<>":
		return NotEqual
	case "lt", "<":
		return Less
	case "le", "<=":
		return LessEqual
	case "gt", ">":
		return Greater
	case "ge", ">=":
		return GreaterEqual
	case "exists":
		return Exists
	}
	return o
}

// Compare compares left and right; both sides are compared as numbers when they
// convert to one, as text otherwise.
func Compare(op Operator, left, right interface{}) (bool, error) {
	op = op.Normalize()
	if op == Exists {
		return left != nil, nil
	}
	if left == nil || right == nil {
		switch op {
		case Equal:
			return left == right, nil
		case NotEqual:
			return left != right, nil
		}
		return false, nil
	}
	if lInt, rInt, ok := asIntegers(left, right); ok {
		return compare(op, lInt, rInt)
	}
	if lNum, rNum, ok := asNumbers(left, right); ok {
		return compare(op, lNum, rNum)
	}
	return compare(op, toolbox.AsString(left), toolbox.AsString(right))
}

func compare[T cmp.Ordered](op Operator, left, right T) (bool, error) {
	switch op {
	case Equal:
		return left == right, nil
	case NotEqual:
		return left != right, nil
	case Less:
		return left < right, nil
	case LessEqual:
		return left <= right, nil
	case Greater:
		return left > right, nil
	case GreaterEqual:
		return left >= right, nil
	}
	return false, fmt.Errorf("unsupported operator: %v", op)
}

// asIntegers keeps counts above 2^53 exact; float conversion is the fallback
func asIntegers(left, right interface{}) (int64, int64, bool) {
	lInt, ok := asInteger(left)
	if !ok {
		return 0, 0, false
	}
	rInt, ok := asInteger(right)
	if !ok {
		return 0, 0, false
	}
	return lInt, rInt, true
}

func asInteger(value interface{}) (int64, bool) {
	switch actual := value.(type) {
	case int:
		return int64(actual), true
	case int8:
		return int64(actual), true
	case int16:
		return int64(actual), true
	case int32:
		return int64(actual), true
	case int64:
		return actual, true
	case uint8:
		return int64(actual), true
	case uint16:
		return int64(actual), true
	case uint32:
		return int64(actual), true
	case string:
		ret, err := strconv.ParseInt(strings.TrimSpace(actual), 10, 64)
		return ret, err == nil
	}
	return 0, false
}

func asNumbers(left, right interface{}) (float64, float64, bool) {
	if _, ok := left.(bool); ok {
		return 0, 0, false
	}
	if _, ok := right.(bool); ok {
		return 0, 0, false
	}
	lNum, err := toolbox.ToFloat(left)
	if err != nil {
		return 0, 0, false
	}
	rNum, err := toolbox.ToFloat(right)
	if err != nil {
		return 0, 0, false
	}
	return lNum, rNum, true
}
