package database

import (
	"context"
	"errors"
	"testing"
)

func TestFirstRecord(t *testing.T) {
	t.Parallel()

	record := map[string]any{"id": "user:1"}

	tests := []struct {
		name    string
		entry   any
		want    any
		wantErr error
	}{
		{"array result", map[string]any{"status": "OK", "result": []any{record, map[string]any{}}}, record, nil},
		{"empty array", map[string]any{"status": "OK", "result": []any{}}, nil, ErrNotFound},
		{"nil result", map[string]any{"status": "OK", "result": nil}, nil, ErrNotFound},
		{"scalar result", map[string]any{"status": "OK", "result": float64(3)}, float64(3), nil},
		{"bare value", "raw", "raw", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := FirstRecord(tt.entry)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr == nil {
				if m, ok := tt.want.(map[string]any); ok {
					gm, ok := got.(map[string]any)
					if !ok || gm["id"] != m["id"] {
						t.Errorf("expected %v, got %v", tt.want, got)
					}
					return
				}
				if got != tt.want {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	dup := classify("Database index `display_name` already contains 'Zed'")
	if !errors.Is(dup, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", dup)
	}

	other := classify("Parse error: unexpected token")
	if !errors.Is(other, ErrQuery) {
		t.Errorf("expected ErrQuery, got %v", other)
	}
}

func TestSurrealDB_NotConnected(t *testing.T) {
	t.Parallel()
	db := NewSurrealDB(Config{})

	if err := db.Ping(context.Background()); !errors.Is(err, ErrConnection) {
		t.Errorf("expected ErrConnection from Ping, got %v", err)
	}
	if _, err := db.Query(context.Background(), "INFO FOR DB", nil); !errors.Is(err, ErrConnection) {
		t.Errorf("expected ErrConnection from Query, got %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("expected nil from Close on unconnected db, got %v", err)
	}
}

func TestConfig_Endpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host, port, want string
	}{
		{"localhost", "8000", "ws://localhost:8000"},
		{"db.internal", "8001", "ws://db.internal:8001"},
		{"::1", "8000", "ws://[::1]:8000"},
	}

	for _, tt := range tests {
		if got := (Config{Host: tt.host, Port: tt.port}).Endpoint(); got != tt.want {
			t.Errorf("Endpoint(%s, %s) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

var _ Database = (*SurrealDB)(nil)
