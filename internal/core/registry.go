package core

// registry.go holds the tables that accept CSV imports. Every import target
// is a table of the inventory schema; registering anything else is a
// programming error and panics at init.

import (
	"fmt"
	"sync"

	"github.com/datakyt/inventory/internal/schema"
)

var (
	registry   = make(map[string]TableDefinition)
	registryMu sync.RWMutex
)

// Register adds an import definition for the schema table named by
// def.Info.Key. It panics if the key is already registered or names no
// schema table.
func Register(def TableDefinition) {
	if _, ok := schema.Lookup(def.Info.Key); !ok {
		panic(fmt.Sprintf("import table %q is not in the schema", def.Info.Key))
	}
	if len(def.FieldSpecs) == 0 {
		panic(fmt.Sprintf("import table %q has no columns", def.Info.Key))
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Info.Key))
	}

	def.Info.Columns = make([]string, len(def.FieldSpecs))
	for i, spec := range def.FieldSpecs {
		def.Info.Columns[i] = spec.Name
	}

	registry[def.Info.Key] = def
}

// Get returns the import definition for a table key.
func Get(key string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns the registered definitions in schema creation order, so
// parent tables are listed before the tables that reference them.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, name := range schema.Names() {
		if def, ok := registry[name]; ok {
			result = append(result, def)
		}
	}
	return result
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}
