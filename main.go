// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for SecretPlan.
//
// Usage:
//
//	go run . [flags]
//	./secretplan [flags]
//
// This launches the SecretPlan CLI. See --help for options.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/JacobLinCool/secret-plan/ui/cli"
)

// version is set at build time using -ldflags, e.g.:
// go build -ldflags "-X main.version=1.2.3"
var version = "dev"

// main is the entrypoint for the SecretPlan CLI.
func main() {
	if os.Getenv("SECRETPLAN_SHOW_VERSION") == "1" {
		fmt.Fprintf(os.Stderr, "SecretPlan version: %s\n", version)
	}

	if err := cli.Execute(); err != nil {
		log.Printf("SecretPlan CLI error: %v", err)
		os.Exit(1)
	}
}
