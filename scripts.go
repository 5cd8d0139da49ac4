// Package botlink carries the Lua example scripts shipped with the botlink CLI.
package botlink

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed examples/*.lua
var examples embed.FS

// Example returns the embedded script called name, with or without the .lua suffix.
func Example(name string) (string, bool) {
	name = strings.TrimSuffix(name, ".lua")
	data, err := examples.ReadFile(path.Join("examples", name+".lua"))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// ExampleNames lists the embedded scripts without their suffix, sorted.
func ExampleNames() []string {
	entries, err := fs.ReadDir(examples, "examples")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".lua"))
	}
	sort.Strings(names)
	return names
}
