// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks the translation files for consistency. It scans the Go
// source for i18n.T() calls, verifies every used key exists in the primary
// locale, flags orphaned keys, and makes sure secondary locales carry every
// key the primary one has.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
	projectRoot   = "."
)

func main() {
	usedKeys, err := findUsedKeys(projectRoot)
	if err != nil {
		fmt.Printf("error scanning source: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("found %d translation keys used in source\n", len(usedKeys))

	primaryKeys, err := loadKeysFromLocale(filepath.Join(localesDir, primaryLocale))
	if err != nil {
		fmt.Printf("error loading primary locale: %v\n", err)
		os.Exit(1)
	}

	failed := false

	// Keys used in code but absent from the primary locale render as raw IDs.
	if missing := diffKeys(usedKeys, primaryKeys); len(missing) > 0 {
		failed = true
		for _, k := range missing {
			fmt.Printf("missing from %s: %s\n", primaryLocale, k)
		}
	}

	// Keys in the primary locale no code refers to.
	for _, k := range diffKeys(primaryKeys, usedKeys) {
		fmt.Printf("orphaned in %s: %s\n", primaryLocale, k)
	}

	// Every secondary locale must cover the primary's keys.
	localeFiles, err := filepath.Glob(filepath.Join(localesDir, "*.yaml"))
	if err != nil {
		fmt.Printf("error listing locales: %v\n", err)
		os.Exit(1)
	}
	for _, file := range localeFiles {
		if filepath.Base(file) == primaryLocale {
			continue
		}
		secondaryKeys, err := loadKeysFromLocale(file)
		if err != nil {
			fmt.Printf("error loading %s: %v\n", file, err)
			failed = true
			continue
		}
		if missing := diffKeys(primaryKeys, secondaryKeys); len(missing) > 0 {
			failed = true
			for _, k := range missing {
				fmt.Printf("missing from %s: %s\n", filepath.Base(file), k)
			}
		}
	}

	if failed {
		os.Exit(1)
	}
	fmt.Println("all translation files are consistent")
}

// diffKeys returns the keys in a that are not in b, sorted.
func diffKeys(a, b map[string]struct{}) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

var usedKeyRe = regexp.MustCompile(`i18n\.T\("([^"]+)"`)

// findUsedKeys scans all non-test .go files for i18n.T("key") calls.
func findUsedKeys(root string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && (info.Name() == "tools" || strings.HasPrefix(info.Name(), "_") || strings.HasPrefix(info.Name(), ".")) && path != root {
			return filepath.SkipDir
		}
		if info.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, match := range usedKeyRe.FindAllStringSubmatch(string(content), -1) {
			keys[match[1]] = struct{}{}
		}
		return nil
	})
	return keys, err
}

// loadKeysFromLocale reads a YAML file and returns a flat map of its keys.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}

	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

// flattenYAML converts a nested map into a flat set of dot-separated keys.
func flattenYAML(prefix string, node interface{}, keys map[string]struct{}) {
	switch v := node.(type) {
	case map[string]interface{}:
		for k, val := range v {
			newPrefix := k
			if prefix != "" {
				newPrefix = prefix + "." + k
			}
			flattenYAML(newPrefix, val, keys)
		}
	default:
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
	}
}
