package placeholder

import (
	"strconv"
	"strings"

	"github.com/viant/parsly"
)

// Segment is a single navigation step: a field name or a list index
type Segment struct {
	Field   string
	Index   int
	IsIndex bool
}

// Expression is a parsed placeholder body, e.g. review_pairs.rows[0]
type Expression struct {
	Text     string
	Root     string
	Segments []Segment
}

// String returns the expression text
func (e *Expression) String() string {
	return e.Text
}

// Parse parses key lookup with optional field access and literal list indexing
func Parse(text string) (*Expression, error) {
	cursor := parsly.NewCursor("", []byte(text), 0)
	expr := &Expression{Text: text}

	matched := cursor.MatchOne(identifierToken)
	if matched.Code != identifierToken.Code {
		return nil, cursor.NewError(identifierToken)
	}
	expr.Root = matched.Text(cursor)

	for cursor.Pos < cursor.InputSize {
		matched = cursor.MatchAny(dotToken, openSquareBracketToken)
		switch matched.Code {
		case dotToken.Code:
			matched = cursor.MatchOne(identifierToken)
			if matched.Code != identifierToken.Code {
				return nil, cursor.NewError(identifierToken)
			}
			expr.Segments = append(expr.Segments, Segment{Field: matched.Text(cursor)})
		case openSquareBracketToken.Code:
			matched = cursor.MatchOne(indexToken)
			if matched.Code != indexToken.Code {
				return nil, cursor.NewError(indexToken)
			}
			index, err := strconv.Atoi(matched.Text(cursor))
			if err != nil {
				return nil, err
			}
			matched = cursor.MatchOne(closeSquareBracketToken)
			if matched.Code != closeSquareBracketToken.Code {
				return nil, cursor.NewError(closeSquareBracketToken)
			}
			expr.Segments = append(expr.Segments, Segment{Index: index, IsIndex: true})
		default:
			return nil, cursor.NewError(dotToken)
		}
	}
	return expr, nil
}

// fragment is either literal text or a placeholder within a template string
type fragment struct {
	literal string
	expr    *Expression
}

// scan splits text into literal and placeholder fragments. Braced text that is
// not a valid expression stays literal.
func scan(text string) []*fragment {
	var result []*fragment
	literal := strings.Builder{}
	i := 0
	for i < len(text) {
		start := strings.IndexByte(text[i:], '{')
		if start == -1 {
			literal.WriteString(text[i:])
			break
		}
		start += i
		end := strings.IndexByte(text[start+1:], '}')
		if end == -1 {
			literal.WriteString(text[i:])
			break
		}
		end += start + 1
		expr, err := Parse(text[start+1 : end])
		if err != nil {
			literal.WriteString(text[i : start+1])
			i = start + 1
			continue
		}
		literal.WriteString(text[i:start])
		if literal.Len() > 0 {
			result = append(result, &fragment{literal: literal.String()})
			literal.Reset()
		}
		result = append(result, &fragment{expr: expr})
		i = end + 1
	}
	if literal.Len() > 0 {
		result = append(result, &fragment{literal: literal.String()})
	}
	return result
}

// Has returns true if text holds at least one placeholder
func Has(text string) bool {
	for _, f := range scan(text) {
		if f.expr != nil {
			return true
		}
	}
	return false
}

// Names returns root keys referenced by text
func Names(text string) []string {
	var result []string
	for _, f := range scan(text) {
		if f.expr != nil {
			result = append(result, f.expr.Root)
		}
	}
	return result
}
