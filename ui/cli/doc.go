// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the command-line interface for SecretPlan using
// Cobra. It wires configuration, the store, the breach oracle and the vault
// manager, and provides commands that delegate to the vault. CLI code should
// remain thin; all crypto and storage logic lives in the internal packages.
package cli
