package store

import (
	"testing"
	"time"
)

func TestInferKind(t *testing.T) {
	cases := []struct {
		value any
		want  valueKind
	}{
		{42, kindInt},
		{int64(42), kindInt},
		{uint8(1), kindInt},
		{3.14, kindFloat},
		{float32(3.14), kindFloat},
		{true, kindBool},
		{time.Now(), kindTime},
		{map[string]any{"a": 1}, kindJSON},
		{[]any{1, 2}, kindJSON},
		{Fields{"a": 1}, kindJSON},
		{"hello", kindText},
		{nil, kindText},
	}
	for _, c := range cases {
		if got := inferKind(c.value); got != c.want {
			t.Errorf("inferKind(%#v) = %v, want %v", c.value, got, c.want)
		}
	}
}

func TestColumnTypeMapping(t *testing.T) {
	pg := postgresDialect{}
	cases := []struct {
		kind valueKind
		want string
	}{
		{kindInt, "INTEGER"},
		{kindFloat, "NUMERIC"},
		{kindBool, "BOOLEAN"},
		{kindTime, "TIMESTAMP"},
		{kindJSON, "JSONB"},
		{kindText, "TEXT"},
	}
	for _, c := range cases {
		if got := pg.columnType(c.kind); got != c.want {
			t.Errorf("postgres columnType(%v) = %s, want %s", c.kind, got, c.want)
		}
	}

	lite := sqliteDialect{}
	if got := lite.columnType(kindJSON); got != "JSON" {
		t.Errorf("sqlite columnType(kindJSON) = %s, want JSON", got)
	}
	if got := lite.columnType(kindBool); got != "BOOLEAN" {
		t.Errorf("sqlite columnType(kindBool) = %s, want BOOLEAN", got)
	}
}

func TestEncodeValueStructuredToJSON(t *testing.T) {
	v, err := encodeValue(map[string]any{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("encodeValue failed: %v", err)
	}
	if v != `{"a":1,"b":2}` {
		t.Errorf("unexpected JSON encoding: %v", v)
	}

	v, err = encodeValue([]any{1, "two"})
	if err != nil {
		t.Fatalf("encodeValue failed: %v", err)
	}
	if v != `[1,"two"]` {
		t.Errorf("unexpected JSON encoding: %v", v)
	}
}

func TestEncodeValueScalarsPassThrough(t *testing.T) {
	now := time.Now()
	for _, v := range []any{nil, true, 42, 3.14, "text", now} {
		got, err := encodeValue(v)
		if err != nil {
			t.Fatalf("encodeValue(%v) failed: %v", v, err)
		}
		if got != v {
			t.Errorf("encodeValue(%v) = %v, expected pass-through", v, got)
		}
	}
}

func TestValidateIdent(t *testing.T) {
	valid := []string{"users", "user_accounts", "_private", "Table2"}
	for _, name := range valid {
		if err := validateIdent(name); err != nil {
			t.Errorf("validateIdent(%q) unexpectedly failed: %v", name, err)
		}
	}

	invalid := []string{"", "2users", "users; DROP TABLE x", `us"ers`, "user-name", "a b"}
	for _, name := range invalid {
		if err := validateIdent(name); err == nil {
			t.Errorf("validateIdent(%q) should have failed", name)
		}
	}
}

func TestDialectFor(t *testing.T) {
	if _, err := dialectFor("pgx"); err != nil {
		t.Errorf("pgx dialect should exist: %v", err)
	}
	if _, err := dialectFor("postgres"); err != nil {
		t.Errorf("postgres dialect should exist: %v", err)
	}
	if _, err := dialectFor("sqlite"); err != nil {
		t.Errorf("sqlite dialect should exist: %v", err)
	}
	if _, err := dialectFor("oracle"); err == nil {
		t.Error("unknown driver should be rejected")
	}
}
