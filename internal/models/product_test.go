package models

import (
	"strings"
	"testing"
)

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"plain", "Mì gói Hảo Hảo", true},
		{"leading space", "  chai nước mắm", true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"tab and newline", "\t\n", false},
		{"single char", "a", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidName(tt.in); got != tt.want {
				t.Errorf("ValidName(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidNames(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"mixed", []string{" Sữa tươi ", "", "  ", "Bánh mì"}, []string{"Sữa tươi", "Bánh mì"}},
		{"all invalid", []string{"", "  "}, []string{}},
		{"empty input", nil, []string{}},
		{"order preserved", []string{"c", "a", "b"}, []string{"c", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidNames(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("ValidNames(%v) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ValidNames(%v)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
				}
			}
			if len(got) > len(tt.in) {
				t.Errorf("output longer than input")
			}
		})
	}
}

func TestNewTemp(t *testing.T) {
	p := NewTemp("  Trà xanh 0 độ ", SourceManual)

	if !p.IsTemp() {
		t.Errorf("NewTemp id %q missing temp prefix", p.ID)
	}
	if p.Name != "Trà xanh 0 độ" {
		t.Errorf("name not trimmed: %q", p.Name)
	}
	if p.Status != StatusPending {
		t.Errorf("status = %q, want pending", p.Status)
	}
	if p.Description != "" {
		t.Errorf("description should start empty")
	}
	if p.UpdatedAt.Before(p.CreatedAt) {
		t.Errorf("updated_at %v before created_at %v", p.UpdatedAt, p.CreatedAt)
	}
}

func TestTempIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := TempID()
		if !strings.HasPrefix(id, TempIDPrefix) {
			t.Fatalf("id %q missing prefix", id)
		}
		if seen[id] {
			t.Fatalf("duplicate temp id %q", id)
		}
		seen[id] = true
	}
}

func TestEligible(t *testing.T) {
	for status, want := range map[ProductStatus]bool{
		StatusPending:    true,
		StatusError:      true,
		StatusProcessing: false,
		StatusCompleted:  false,
	} {
		if got := (Product{Status: status}).Eligible(); got != want {
			t.Errorf("Eligible with status %q = %v, want %v", status, got, want)
		}
	}
}
