// Package toolcatalog maps the MCP servers configured in mcp.json to the
// function-calling tools agents may use in each phase.
package toolcatalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ariel-frischer/agentpipe/internal/agentspec"
)

// serversKey is the top-level mcp.json object holding server entries.
const serversKey = "mcpServers"

// Server is one entry of the mcpServers object.
type Server struct {
	Command  string            `koanf:"command" json:"command,omitempty" yaml:"command,omitempty"`
	Args     []string          `koanf:"args" json:"args,omitempty" yaml:"args,omitempty"`
	Env      map[string]string `koanf:"env" json:"env,omitempty" yaml:"env,omitempty"`
	Disabled bool              `koanf:"disabled" json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// phaseFilters restricts the tools offered in a phase to functions whose
// name starts with one of the prefixes. Phases without an entry get every
// available function.
var phaseFilters = map[agentspec.Phase][]string{
	agentspec.PhasePlanning:     {"task_master", "perplexity", "context7", "deepwiki", "sequential"},
	agentspec.PhaseRoles:        {"task_master", "context7", "deepwiki"},
	agentspec.PhaseProcess:      {"task_master", "sequential"},
	agentspec.PhaseDevelopment:  {"task_master", "github", "context7"},
	agentspec.PhaseFinalization: {"task_master", "github", "knowledge_graph"},
}

// Catalog is the immutable set of configured MCP servers.
type Catalog struct {
	servers map[string]Server
}

// New builds a catalog from server entries.
func New(servers map[string]Server) *Catalog {
	c := &Catalog{servers: make(map[string]Server, len(servers))}
	for name, s := range servers {
		c.servers[name] = s
	}
	return c
}

// Load reads the MCP configuration at path. A missing file yields an empty
// catalog; a malformed one is an error.
func Load(path string) (*Catalog, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return New(nil), nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load MCP config %s: %w", path, err)
	}

	servers := make(map[string]Server)
	for _, name := range k.MapKeys(serversKey) {
		var s Server
		if err := k.Unmarshal(serversKey+"."+name, &s); err != nil {
			return nil, fmt.Errorf("invalid MCP server %q in %s: %w", name, path, err)
		}
		servers[name] = s
	}
	return New(servers), nil
}

// Servers returns the configured server names, sorted.
func (c *Catalog) Servers() []string {
	return sortedKeys(c.servers)
}

// Server returns the configuration of a named server.
func (c *Catalog) Server(name string) (Server, bool) {
	s, ok := c.servers[name]
	return s, ok
}

// EnabledServers returns the configured servers that are not disabled, sorted.
func (c *Catalog) EnabledServers() []string {
	var names []string
	for _, name := range c.Servers() {
		if !c.servers[name].Disabled {
			names = append(names, name)
		}
	}
	return names
}

// Available returns the tools of every enabled server, ordered by server
// name and then by table order.
func (c *Catalog) Available() []Tool {
	var tools []Tool
	for _, name := range c.EnabledServers() {
		for _, fn := range knownFunctions[name] {
			fn.Server = name
			tools = append(tools, Tool{Type: "function", Function: fn})
		}
	}
	return tools
}

// FunctionsFor returns the tools offered to an agent in phase. Every agent
// in a phase currently receives the same set.
func (c *Catalog) FunctionsFor(agentID string, phase agentspec.Phase) []Tool {
	all := c.Available()
	prefixes, ok := phaseFilters[phase]
	if !ok {
		return all
	}

	var filtered []Tool
	for _, tool := range all {
		if hasAnyPrefix(tool.Function.Name, prefixes) {
			filtered = append(filtered, tool)
		}
	}
	return filtered
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
