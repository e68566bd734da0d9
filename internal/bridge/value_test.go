package bridge

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestBindArg(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    any
		wantErr error
	}{
		{name: "null", input: nil, want: nil},
		{name: "true to integer", input: true, want: int64(1)},
		{name: "false to integer", input: false, want: int64(0)},
		{name: "string to text", input: "Bob", want: "Bob"},
		{name: "json number integer", input: json.Number("42"), want: int64(42)},
		{name: "json number negative", input: json.Number("-7"), want: int64(-7)},
		{name: "json number real", input: json.Number("4.5"), want: float64(4.5)},
		{name: "json number exponent", input: json.Number("1e3"), want: float64(1000)},
		{name: "integral float to integer", input: float64(3), want: int64(3)},
		{name: "fractional float to real", input: float64(3.5), want: float64(3.5)},
		{name: "native int", input: 12, want: int64(12)},
		{name: "native int64", input: int64(13), want: int64(13)},
		{name: "object rejected", input: map[string]any{"a": 1}, wantErr: ErrInvalidParameterKind},
		{name: "nested array rejected", input: []any{1, 2}, wantErr: ErrInvalidParameterKind},
		{name: "blob input rejected", input: []byte{0x01}, wantErr: ErrInvalidParameterKind},
		{name: "malformed number rejected", input: json.Number("abc"), wantErr: ErrInvalidParameterKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bindArg(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("bindArg(%v) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("bindArg(%v) error = %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("bindArg(%v) = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestBindArgs(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		args, err := bindArgs(nil)
		if err != nil {
			t.Fatalf("bindArgs(nil) error = %v", err)
		}
		if args != nil {
			t.Errorf("bindArgs(nil) = %v, want nil", args)
		}
	})

	t.Run("preserves order", func(t *testing.T) {
		args, err := bindArgs([]any{json.Number("1"), "two", nil, true})
		if err != nil {
			t.Fatalf("bindArgs() error = %v", err)
		}
		want := []any{int64(1), "two", nil, int64(1)}
		if !reflect.DeepEqual(args, want) {
			t.Errorf("bindArgs() = %v, want %v", args, want)
		}
	})

	t.Run("reports failing index", func(t *testing.T) {
		_, err := bindArgs([]any{"ok", map[string]any{}})
		if !errors.Is(err, ErrInvalidParameterKind) {
			t.Fatalf("bindArgs() error = %v, want ErrInvalidParameterKind", err)
		}
	})
}

func TestColumnValue(t *testing.T) {
	t.Run("scalars pass through", func(t *testing.T) {
		tests := []struct {
			input any
			want  any
		}{
			{input: nil, want: nil},
			{input: int64(5), want: int64(5)},
			{input: float64(2.5), want: float64(2.5)},
			{input: "text", want: "text"},
			{input: true, want: int64(1)},
		}
		for _, tt := range tests {
			got, err := columnValue(tt.input)
			if err != nil {
				t.Fatalf("columnValue(%v) error = %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("columnValue(%v) = %v, want %v", tt.input, got, tt.want)
			}
		}
	})

	t.Run("invalid utf8 text", func(t *testing.T) {
		_, err := columnValue(string([]byte{0xff, 0xfe}))
		if !errors.Is(err, ErrEncoding) {
			t.Fatalf("columnValue() error = %v, want ErrEncoding", err)
		}
	})

	t.Run("blob is copied", func(t *testing.T) {
		src := []byte{1, 2, 3}
		got, err := columnValue(src)
		if err != nil {
			t.Fatalf("columnValue() error = %v", err)
		}
		blob, ok := got.([]byte)
		if !ok {
			t.Fatalf("columnValue() = %T, want []byte", got)
		}
		src[0] = 9
		if blob[0] != 1 {
			t.Error("blob aliases the driver buffer")
		}
	})

	t.Run("time renders as rfc3339 text", func(t *testing.T) {
		ts := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
		got, err := columnValue(ts)
		if err != nil {
			t.Fatalf("columnValue() error = %v", err)
		}
		if got != "2026-03-01T12:30:00Z" {
			t.Errorf("columnValue(time) = %v, want 2026-03-01T12:30:00Z", got)
		}
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		_, err := columnValue(struct{}{})
		if !errors.Is(err, ErrConversion) {
			t.Fatalf("columnValue() error = %v, want ErrConversion", err)
		}
	})
}
