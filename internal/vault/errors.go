// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import "errors"

// ErrAuthentication is returned when the master password cannot open the
// vault. A wrong password and a corrupted key verifier are deliberately
// indistinguishable.
var ErrAuthentication = errors.New("authentication failed")

// ErrVaultLocked is returned when an operation needs the session key and the
// vault is locked.
var ErrVaultLocked = errors.New("vault is locked")

// ErrVaultExists is returned when creating a vault over an initialized one.
var ErrVaultExists = errors.New("vault already exists")

// ErrVaultUninitialized is returned when unlocking a vault that was never
// created.
var ErrVaultUninitialized = errors.New("vault is not initialized")

// ErrStorage marks an unexpected repository failure. It is fatal to the
// operation that hit it, never to the session.
var ErrStorage = errors.New("storage failure")
