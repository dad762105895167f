package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind is the storage class of a scalar result value
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindReal
	KindText
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single cell of a query result. Only the field matching Kind is
// meaningful.
type Value struct {
	Kind Kind
	Int  int64
	Real float64
	Text string
	Blob []byte
}

// Null returns the SQL NULL value
func Null() Value { return Value{Kind: KindNull} }

// Integer wraps an integer cell
func Integer(i int64) Value { return Value{Kind: KindInteger, Int: i} }

// Real wraps a floating point cell
func Real(f float64) Value { return Value{Kind: KindReal, Real: f} }

// Text wraps a text cell
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Blob wraps a blob cell
func Blob(b []byte) Value { return Value{Kind: KindBlob, Blob: b} }

// IsNull reports whether v is NULL
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Equal reports exact value equality. NULL equals only NULL. Integers and
// reals compare numerically, since column affinity may store the same number
// either way.
func (v Value) Equal(other Value) bool {
	switch v.Kind {
	case KindNull:
		return other.Kind == KindNull
	case KindInteger:
		switch other.Kind {
		case KindInteger:
			return v.Int == other.Int
		case KindReal:
			return float64(v.Int) == other.Real
		}
		return false
	case KindReal:
		switch other.Kind {
		case KindReal:
			return v.Real == other.Real
		case KindInteger:
			return v.Real == float64(other.Int)
		}
		return false
	case KindText:
		return other.Kind == KindText && v.Text == other.Text
	case KindBlob:
		return other.Kind == KindBlob && bytes.Equal(v.Blob, other.Blob)
	default:
		return false
	}
}

// String renders the value the way a result table shows it
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindReal:
		return strconv.FormatFloat(v.Real, 'g', -1, 64)
	case KindText:
		return v.Text
	case KindBlob:
		return fmt.Sprintf("x'%X'", v.Blob)
	default:
		return "?"
	}
}

// MarshalJSON encodes the value as its natural JSON scalar
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindInteger:
		return []byte(strconv.FormatInt(v.Int, 10)), nil
	case KindReal:
		return []byte(strconv.FormatFloat(v.Real, 'g', -1, 64)), nil
	case KindText:
		return json.Marshal(v.Text)
	case KindBlob:
		return json.Marshal(v.Blob)
	default:
		return nil, fmt.Errorf("marshal value: unknown kind %d", v.Kind)
	}
}

// QueryOutcome is the result of running one SQL text against one instance:
// either a result table or an engine error message.
type QueryOutcome struct {
	Columns      []string  `json:"columns"`
	Rows         [][]Value `json:"rows"`
	ErrorMessage string    `json:"error,omitempty"`
}

// FailedOutcome builds an error outcome
func FailedOutcome(message string) QueryOutcome {
	return QueryOutcome{ErrorMessage: message}
}

// Failed reports whether the outcome is an engine error
func (o QueryOutcome) Failed() bool {
	return o.ErrorMessage != ""
}

// RowCount returns the number of result rows
func (o QueryOutcome) RowCount() int {
	return len(o.Rows)
}
