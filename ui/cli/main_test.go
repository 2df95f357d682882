// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"runtime/debug"
	"testing"
)

func TestNewRootCmd_RegistersCommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{
		"init", "add", "list", "reveal", "update", "delete",
		"breach", "audit", "generate", "backup", "restore", "passwd", "version",
	}
	have := map[string]bool{}
	for _, c := range root.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestNewRootCmd_CalledTwice(t *testing.T) {
	// Package-level subcommands are shared; building a second root must not
	// panic on duplicate flag definitions.
	_ = NewRootCmd()
	_ = NewRootCmd()
}

func TestResolveBuildVersion_Defaults(t *testing.T) {
	v, c, d := resolveBuildVersion(&debug.BuildInfo{})
	if v != "dev" {
		t.Errorf("version = %q, want dev", v)
	}
	if c != "dev" {
		t.Errorf("commit = %q, want dev", c)
	}
	if d != "" {
		t.Errorf("date = %q, want empty", d)
	}
}

func TestResolveBuildVersion_FromBuildInfo(t *testing.T) {
	info := &debug.BuildInfo{}
	info.Main.Version = "v1.2.3"
	info.Settings = []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.time", Value: "2026-08-31T00:00:00Z"},
	}
	v, c, d := resolveBuildVersion(info)
	if v != "v1.2.3" {
		t.Errorf("version = %q", v)
	}
	if c != "0123456789ab" {
		t.Errorf("commit = %q, want 12-char prefix", c)
	}
	if d != "2026-08-31T00:00:00Z" {
		t.Errorf("date = %q", d)
	}
}
