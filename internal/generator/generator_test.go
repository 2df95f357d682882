// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package generator

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateLength(t *testing.T) {
	for _, n := range []int{1, 8, 20, 64} {
		pw, err := Generate(Options{Length: n, Lower: true})
		if err != nil {
			t.Fatalf("Generate length %d failed: %v", n, err)
		}
		if len(pw) != n {
			t.Errorf("length = %d, want %d", len(pw), n)
		}
	}
}

func TestGenerateRespectsCharset(t *testing.T) {
	pw, err := Generate(Options{Length: 200, Digits: true})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for _, r := range pw {
		if !strings.ContainsRune(digitSet, r) {
			t.Fatalf("digits-only password contains %q", r)
		}
	}
}

func TestGenerateExcludeSimilar(t *testing.T) {
	pw, err := Generate(Options{Length: 500, Upper: true, Lower: true, Digits: true, ExcludeSimilar: true})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if strings.ContainsAny(pw, similarSet) {
		t.Errorf("password contains similar-looking characters: %q", pw)
	}
}

func TestGenerateErrors(t *testing.T) {
	if _, err := Generate(Options{Length: 0, Lower: true}); !errors.Is(err, ErrBadLength) {
		t.Errorf("expected ErrBadLength, got %v", err)
	}
	if _, err := Generate(Options{Length: 10}); !errors.Is(err, ErrNoCharset) {
		t.Errorf("expected ErrNoCharset, got %v", err)
	}
}

func TestGenerateNotConstant(t *testing.T) {
	a, err := Generate(DefaultOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	b, err := Generate(DefaultOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if a == b {
		t.Errorf("two 20-char generations produced identical output %q", a)
	}
}
