package bridge

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

// Row is one result row: column name to converted value.
// Values are restricted to the bridge value model: nil, int64, float64,
// string, and []byte.
type Row map[string]any

// bindArg converts one caller-supplied dynamic value into a driver argument.
//
// Classification:
//   - nil            -> NULL
//   - bool           -> integer 0/1
//   - json.Number    -> integer when it has no fractional part, real otherwise
//   - integral float -> integer (plain encoding/json decodes all numbers as float64)
//   - string         -> text
//
// Anything else (objects, nested arrays, caller-supplied blobs) fails with
// ErrInvalidParameterKind. The legacy behaviour of silently dropping such
// parameters shifted every later positional bind and is not reproduced.
func bindArg(p any) (any, error) {
	switch v := p.(type) {
	case nil:
		return nil, nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		return v, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: malformed number %q", ErrInvalidParameterKind, v.String())
		}
		return f, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int64(v), nil
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidParameterKind, p)
	}
}

// bindArgs converts a positional parameter list into driver arguments.
// The returned slice preserves order; a failure reports the offending index.
func bindArgs(params []any) ([]any, error) {
	if len(params) == 0 {
		return nil, nil
	}
	args := make([]any, len(params))
	for i, p := range params {
		arg, err := bindArg(p)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		args[i] = arg
	}
	return args, nil
}

// columnValue converts one scanned column into the bridge value model.
//
// The mapping is 1:1 with SQLite storage classes: NULL, INTEGER, REAL,
// TEXT, BLOB. Text must be valid UTF-8. Columns the driver surfaces as
// time.Time (declared DATETIME/TIMESTAMP) are rendered as RFC 3339 text,
// the closest representable kind.
func columnValue(v any) (any, error) {
	switch c := v.(type) {
	case nil:
		return nil, nil
	case int64:
		return c, nil
	case float64:
		return c, nil
	case string:
		if !utf8.ValidString(c) {
			return nil, ErrEncoding
		}
		return c, nil
	case []byte:
		// Copy: the driver may reuse the buffer on the next row.
		return append([]byte(nil), c...), nil
	case bool:
		if c {
			return int64(1), nil
		}
		return int64(0), nil
	case time.Time:
		return c.Format(time.RFC3339Nano), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrConversion, v)
	}
}
