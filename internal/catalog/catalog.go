// Package catalog carries the provider reference data the built-in
// templates consume: role-definition GUIDs, function runtime defaults and
// resource API versions. The data lives in an embedded JSON document
// rather than in code so it can track the provider's catalog without
// logic changes.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
)

//go:embed catalog.json
var catalogJSON []byte

// Runtime describes the hosting defaults for one function runtime.
type Runtime struct {
	WorkerRuntime  string `json:"workerRuntime"`
	Version        string `json:"version"`
	LinuxFxVersion string `json:"linuxFxVersion"`
}

// Catalog is the loaded reference data.
type Catalog struct {
	RoleDefinitions map[string]string   `json:"roleDefinitions"`
	Runtimes        map[string]*Runtime `json:"runtimes"`
	APIVersions     map[string]string   `json:"apiVersions"`
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(catalogJSON, &c); err != nil {
		return nil, fmt.Errorf("failed to parse embedded catalog: %w", err)
	}
	return &c, nil
}

// MustLoad is Load for callers that treat a broken embedded catalog as a
// build defect.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// RoleDefinitionID returns the GUID of a built-in role by display name.
func (c *Catalog) RoleDefinitionID(name string) (string, error) {
	id, ok := c.RoleDefinitions[name]
	if !ok {
		return "", fmt.Errorf("unknown role definition %q", name)
	}
	return id, nil
}

// Runtime returns the defaults for a function runtime name.
func (c *Catalog) Runtime(name string) (*Runtime, error) {
	rt, ok := c.Runtimes[name]
	if !ok {
		return nil, fmt.Errorf("unknown runtime %q", name)
	}
	return rt, nil
}

// RuntimeNames returns the runtime names, for parameter allowed sets.
func (c *Catalog) RuntimeNames() []string {
	names := make([]string, 0, len(c.Runtimes))
	for name := range c.Runtimes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// APIVersion returns the API version for a resource type, or an empty
// string when the type is not in the catalog.
func (c *Catalog) APIVersion(resourceType string) string {
	return c.APIVersions[resourceType]
}
