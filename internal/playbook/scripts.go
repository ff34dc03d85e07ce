package playbook

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed scripts/*.sh
var scriptFS embed.FS

// helperName is the shared library prepended to every playbook.
const helperName = "helpers"

// Helper returns the shared function library source.
func Helper() string {
	data, err := scriptFS.ReadFile("scripts/" + helperName + ".sh")
	if err != nil {
		// The helper is embedded at build time; missing it is a
		// packaging defect, not a runtime condition.
		panic(fmt.Sprintf("playbook: embedded helper library missing: %v", err))
	}
	return string(data)
}

// Script returns the body of the named playbook.
func Script(name string) (string, error) {
	if name == helperName {
		return "", fmt.Errorf("playbook: %q is the helper library, not a playbook", name)
	}
	data, err := scriptFS.ReadFile("scripts/" + name + ".sh")
	if err != nil {
		return "", fmt.Errorf("playbook: unknown playbook %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return string(data), nil
}

// Names lists the available playbooks.
func Names() []string {
	entries, err := scriptFS.ReadDir("scripts")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".sh")
		if name == helperName {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
