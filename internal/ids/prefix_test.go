package ids

import (
	"errors"
	"testing"
)

func TestUniquePrefixLengths(t *testing.T) {
	ids := []string{"2u3iutfd", "2a9k1111", "abc12345"}
	lengths := UniquePrefixLengths(ids)

	if got := lengths["2u3iutfd"]; got != 2 {
		t.Fatalf("expected 2u3iutfd prefix length 2, got %d", got)
	}
	if got := lengths["2a9k1111"]; got != 2 {
		t.Fatalf("expected 2a9k1111 prefix length 2, got %d", got)
	}
	if got := lengths["abc12345"]; got != 1 {
		t.Fatalf("expected abc12345 prefix length 1, got %d", got)
	}
}

func TestUniquePrefixLengthsSkipsDuplicatesAndEmpty(t *testing.T) {
	lengths := UniquePrefixLengths([]string{"abc", "", "ABC"})

	if len(lengths) != 1 {
		t.Fatalf("expected 1 unique ID, got %d", len(lengths))
	}
	if got := lengths["abc"]; got != 1 {
		t.Fatalf("expected abc prefix length 1, got %d", got)
	}
}

func TestResolve(t *testing.T) {
	ids := []string{"abc111", "abd222", "ff0000"}

	tests := []struct {
		name    string
		prefix  string
		want    string
		wantErr error
	}{
		{name: "exact", prefix: "abc111", want: "abc111"},
		{name: "unique prefix", prefix: "ff", want: "ff0000"},
		{name: "case insensitive", prefix: "ABD", want: "abd222"},
		{name: "ambiguous", prefix: "ab", wantErr: ErrAmbiguous},
		{name: "missing", prefix: "zz", wantErr: ErrNoMatch},
		{name: "blank", prefix: "  ", wantErr: ErrNoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(ids, tt.prefix)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
