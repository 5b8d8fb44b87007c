package repositories

import (
	"reflect"
	"testing"
)

func TestBuildPatch(t *testing.T) {
	allowed := map[string]bool{"label": true, "done": true}

	tests := []struct {
		name        string
		patch       map[string]any
		wantClauses []string
		wantArgs    []any
	}{
		{
			name:        "allowed fields in sorted order",
			patch:       map[string]any{"label": "Badge photo", "done": true},
			wantClauses: []string{"done = $1", "label = $2"},
			wantArgs:    []any{true, "Badge photo"},
		},
		{
			name:        "unrecognized fields dropped",
			patch:       map[string]any{"label": "x", "status": "published"},
			wantClauses: []string{"label = $1"},
			wantArgs:    []any{"x"},
		},
		{
			name:        "nothing allowed yields empty patch",
			patch:       map[string]any{"status": "published", "deleted_at": nil},
			wantClauses: []string{},
			wantArgs:    []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clauses, args := buildPatch(allowed, tt.patch)
			if !reflect.DeepEqual(clauses, tt.wantClauses) {
				t.Errorf("clauses = %v, want %v", clauses, tt.wantClauses)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{"zero value gets defaults", Page{}, Page{Limit: DefaultPageSize}},
		{"oversized limit clamps", Page{Limit: 10000}, Page{Limit: MaxPageSize}},
		{"negative offset clamps", Page{Limit: 10, Offset: -5}, Page{Limit: 10}},
		{"sane page untouched", Page{Limit: 25, Offset: 50}, Page{Limit: 25, Offset: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
