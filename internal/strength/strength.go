// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package strength scores passwords on a 0-100 scale. The score is an index
// hint for filtering and display, not a cracking-cost estimate.
package strength

import "unicode"

// Score rates a password from 0 to 100. Length contributes up to 40 points
// (two per character); character-class variety contributes the remaining 60.
// The score never decreases when the password gets longer.
func Score(password string) int {
	if password == "" {
		return 0
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	length := 0
	for _, r := range password {
		length++
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	score := length * 2
	if score > 40 {
		score = 40
	}
	if hasLower {
		score += 10
	}
	if hasUpper {
		score += 15
	}
	if hasDigit {
		score += 15
	}
	if hasSpecial {
		score += 20
	}
	return score
}
