// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package generator builds random passwords from a character-class
// configuration. It draws from crypto/rand; there is no state to keep.
package generator

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	upperSet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerSet  = "abcdefghijklmnopqrstuvwxyz"
	digitSet  = "0123456789"
	symbolSet = "!@#$%^&*()-_=+[]{}|;:,.<>?"
	// similarSet holds glyphs that are easy to confuse on screen.
	similarSet = "Il1O0"
)

// ErrNoCharset is returned when every character class is disabled.
var ErrNoCharset = errors.New("at least one character class must be enabled")

// ErrBadLength is returned for a non-positive requested length.
var ErrBadLength = errors.New("password length must be at least 1")

// Options selects the character classes and length for a generated password.
type Options struct {
	Length         int
	Upper          bool
	Lower          bool
	Digits         bool
	Symbols        bool
	ExcludeSimilar bool
}

// DefaultOptions mirrors the defaults offered by the generator dialog.
func DefaultOptions() Options {
	return Options{Length: 20, Upper: true, Lower: true, Digits: true, Symbols: true, ExcludeSimilar: true}
}

// Generate returns a random password drawn uniformly from the configured
// character set.
func Generate(opts Options) (string, error) {
	if opts.Length < 1 {
		return "", ErrBadLength
	}

	var charset strings.Builder
	if opts.Upper {
		charset.WriteString(upperSet)
	}
	if opts.Lower {
		charset.WriteString(lowerSet)
	}
	if opts.Digits {
		charset.WriteString(digitSet)
	}
	if opts.Symbols {
		charset.WriteString(symbolSet)
	}
	set := charset.String()
	if opts.ExcludeSimilar {
		for _, r := range similarSet {
			set = strings.ReplaceAll(set, string(r), "")
		}
	}
	if set == "" {
		return "", ErrNoCharset
	}

	out := make([]byte, opts.Length)
	max := big.NewInt(int64(len(set)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("reading randomness: %w", err)
		}
		out[i] = set[n.Int64()]
	}
	return string(out), nil
}
