package registry

import (
	_ "embed"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed servers.yaml
var defaultCatalog []byte

// Registry is the static, process-wide catalog of servers and tools. It is
// built once by New/Default and is safe for concurrent read access for the
// lifetime of the process. The server and tool catalog is never mutated
// after construction; only the per-tool argument schemas change, through
// SetArgSchema and the lazy compilation in ValidateArgs.
type Registry struct {
	servers []Server
	byName  map[string]Server
	tools   map[string]Tool // tool name -> Tool

	mu      sync.Mutex // guards the argument schemas and their compiled cache
	schemas map[string]*jsonschema.Schema
	rawArgs map[string]map[string]any
}

// Default builds a Registry from the embedded catalog of fourteen domain
// workers.
func Default() (*Registry, error) {
	return New(defaultCatalog)
}

// New builds a Registry from a YAML catalog document shaped like
// servers.yaml. Repeated calls with the same bytes yield identical state
// (Registry is a pure function of its input).
func New(yamlDoc []byte) (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(yamlDoc, &file); err != nil {
		return nil, errors.Wrap(err, "registry: parse catalog")
	}
	r := &Registry{
		byName:  make(map[string]Server, len(file.Servers)),
		tools:   make(map[string]Tool, len(file.Servers)),
		schemas: make(map[string]*jsonschema.Schema),
		rawArgs: make(map[string]map[string]any),
	}
	for _, sc := range file.Servers {
		if sc.Name == "" {
			return nil, errors.New("registry: server entry missing name")
		}
		s := Server{
			Name:         sc.Name,
			Domain:       sc.Domain,
			Persona:      sc.Persona,
			Capabilities: append([]string(nil), sc.Capabilities...),
		}
		r.servers = append(r.servers, s)
		r.byName[s.Name] = s
		tool := toolFor(s.Name)
		r.tools[tool.Name] = tool
	}
	return r, nil
}

// LoadServers reads a YAML catalog document from r and builds a Registry
// from it, for operators who want to override the embedded fourteen-worker
// catalog.
func LoadServers(r io.Reader) (*Registry, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "registry: read catalog")
	}
	return New(b)
}

// ServerFilter narrows ListServers results. Zero-value fields are
// unconstrained.
type ServerFilter struct {
	Domain     string
	Type       ToolType
	Capability string
}

// ListServers returns servers matching filter, in catalog order. A nil or
// zero-value filter returns every server.
func (r *Registry) ListServers(filter *ServerFilter) []Server {
	out := make([]Server, 0, len(r.servers))
	for _, s := range r.servers {
		if filter == nil {
			out = append(out, s)
			continue
		}
		if filter.Domain != "" && !strings.EqualFold(filter.Domain, s.Domain) {
			continue
		}
		if filter.Type != "" {
			tool, ok := r.tools[s.Name+".analyze"]
			if !ok || tool.Type != filter.Type {
				continue
			}
		}
		if filter.Capability != "" && !hasCapability(s.Capabilities, filter.Capability) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func hasCapability(caps []string, want string) bool {
	want = strings.ToLower(want)
	for _, c := range caps {
		if strings.Contains(strings.ToLower(c), want) {
			return true
		}
	}
	return false
}

// DescribeTools returns the Tool records for serverName, or every tool in
// the catalog when serverName is empty.
func (r *Registry) DescribeTools(serverName string) []Tool {
	if serverName == "" {
		out := make([]Tool, 0, len(r.tools))
		for _, s := range r.servers {
			out = append(out, r.tools[s.Name+".analyze"])
		}
		return out
	}
	server, _, _ := ResolveServerName(serverName)
	tool, ok := r.tools[server+".analyze"]
	if !ok {
		return nil
	}
	return []Tool{tool}
}

// FindCapability returns the servers whose capability list contains name as
// a case-insensitive substring of any entry.
func (r *Registry) FindCapability(name string) []Server {
	if name == "" {
		return nil
	}
	var out []Server
	for _, s := range r.servers {
		if hasCapability(s.Capabilities, name) {
			out = append(out, s)
		}
	}
	return out
}

// ResolveServerName splits a tool name ("server.verb") into its leading
// server segment, or returns the input unchanged when it has no dot. This
// implements the §9 Open Question policy: auth and routing both key off the
// leading server segment regardless of which verb form a caller used.
func ResolveServerName(toolOrServer string) (server string, verb string, hadVerb bool) {
	server, verb, hadVerb = strings.Cut(toolOrServer, ".")
	return server, verb, hadVerb
}

// ResolveServer looks up a server by either its bare name or a dotted
// "server.verb" tool name.
func (r *Registry) ResolveServer(name string) (Server, bool) {
	server, _, _ := ResolveServerName(name)
	s, ok := r.byName[server]
	return s, ok
}

// Tool looks up a tool by its full dotted name.
func (r *Registry) Tool(name string) (Tool, bool) {
	t, ok := r.tools[name]
	if ok {
		return t, true
	}
	// §9 policy: resolve by leading server segment for non-canonical verbs
	// such as "decision.make_recommendation".
	server, _, hadVerb := ResolveServerName(name)
	if !hadVerb {
		return Tool{}, false
	}
	t, ok = r.tools[server+".analyze"]
	return t, ok
}

// SetArgSchema attaches an optional JSON Schema (as a decoded document) that
// tool arguments must satisfy. The schema is compiled lazily on first use by
// ValidateArgs.
func (r *Registry) SetArgSchema(toolName string, schema map[string]any) error {
	if _, ok := r.tools[toolName]; !ok {
		return fmt.Errorf("registry: unknown tool %q", toolName)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rawArgs[toolName] = schema
	delete(r.schemas, toolName) // force recompile
	return nil
}

// ValidateArgs validates args against the tool's declared argument schema,
// if any. Tools without a declared schema always validate. On failure the
// returned error's message contains the substring "schema validation" so it
// classifies as a permanent error under the kernel's error taxonomy.
func (r *Registry) ValidateArgs(toolName string, args map[string]any) error {
	r.mu.Lock()
	raw, hasSchema := r.rawArgs[toolName]
	compiled, isCompiled := r.schemas[toolName]
	r.mu.Unlock()
	if !hasSchema {
		return nil
	}
	if !isCompiled {
		c := jsonschema.NewCompiler()
		res, err := toResource(raw)
		if err != nil {
			return errors.Wrapf(err, "registry: tool %q schema", toolName)
		}
		if err := c.AddResource(toolName, res); err != nil {
			return errors.Wrapf(err, "registry: tool %q schema", toolName)
		}
		schema, err := c.Compile(toolName)
		if err != nil {
			return errors.Wrapf(err, "registry: tool %q schema", toolName)
		}
		r.mu.Lock()
		r.schemas[toolName] = schema
		r.mu.Unlock()
		compiled = schema
	}
	if err := compiled.Validate(toAny(args)); err != nil {
		return fmt.Errorf("schema validation failed for tool %q: %w", toolName, err)
	}
	return nil
}

func toResource(m map[string]any) (any, error) {
	return m, nil
}

func toAny(m map[string]any) any {
	return m
}
