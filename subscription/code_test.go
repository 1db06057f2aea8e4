package subscription

import (
	"bytes"
	"errors"
	"regexp"
	"testing"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestGenerateCodeFormat(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateCode(nil)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !sixDigits.MatchString(code) {
			t.Fatalf("expected six digits, got %q", code)
		}
	}
}

func TestGenerateCodeZeroPads(t *testing.T) {
	code, err := GenerateCode(bytes.NewReader(make([]byte, 16)))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if code != "000000" {
		t.Fatalf("expected 000000, got %q", code)
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestGenerateCodeReaderFailure(t *testing.T) {
	if _, err := GenerateCode(brokenReader{}); err == nil {
		t.Fatal("expected error from failing reader")
	}
}
