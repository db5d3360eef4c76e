package config

import "encoding/json"

// PortSchema describes the shape of data flowing through a Port. This is
// the descriptive shape only — schema validation itself is an external
// collaborator out of scope for this module (spec.md section 1); the
// tagged union mirrors original_source/src/schema/schema.rs.
type PortSchema struct {
	TypeName string          `json:"type_name,omitempty" yaml:"type_name,omitempty"`
	Format   string          `json:"format,omitempty" yaml:"format,omitempty"`
	JSON     json.RawMessage `json:"json_schema,omitempty" yaml:"json_schema,omitempty"`
}

// Port is one named input or output of an Agent or Tool manifest.
type Port struct {
	Name        string      `json:"name" yaml:"name"`
	Schema      *PortSchema `json:"schema,omitempty" yaml:"schema,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
}

// NewPort builds a Port, mirroring the fluent builder in
// original_source/src/agent/manifest.rs via Go functional options.
func NewPort(name string, opts ...PortOption) Port {
	p := Port{Name: name}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// PortOption configures a Port built with NewPort.
type PortOption func(*Port)

// WithPortSchema attaches a PortSchema to a Port.
func WithPortSchema(s PortSchema) PortOption {
	return func(p *Port) { p.Schema = &s }
}

// WithPortDescription attaches a human-readable description to a Port.
func WithPortDescription(d string) PortOption {
	return func(p *Port) { p.Description = d }
}

// AgentManifest declares an agent's public contract: its ports,
// capabilities, permissions, and resource needs.
type AgentManifest struct {
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Inputs       []Port   `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs      []Port   `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Permissions  []string `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Resources    []string `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// ManifestOption configures an AgentManifest or ToolManifest.
type ManifestOption func(*manifestBuilder)

type manifestBuilder struct {
	description  string
	inputs       []Port
	outputs      []Port
	capabilities []string
	permissions  []string
	resources    []string
}

// WithDescription sets a manifest's description.
func WithDescription(d string) ManifestOption {
	return func(b *manifestBuilder) { b.description = d }
}

// WithInput appends an input Port.
func WithInput(p Port) ManifestOption {
	return func(b *manifestBuilder) { b.inputs = append(b.inputs, p) }
}

// WithOutput appends an output Port.
func WithOutput(p Port) ManifestOption {
	return func(b *manifestBuilder) { b.outputs = append(b.outputs, p) }
}

// WithCapability appends a capability tag.
func WithCapability(c string) ManifestOption {
	return func(b *manifestBuilder) { b.capabilities = append(b.capabilities, c) }
}

// WithPermission appends a permission tag.
func WithPermission(p string) ManifestOption {
	return func(b *manifestBuilder) { b.permissions = append(b.permissions, p) }
}

// WithResource appends a resource tag.
func WithResource(r string) ManifestOption {
	return func(b *manifestBuilder) { b.resources = append(b.resources, r) }
}

// NewAgentManifest builds an AgentManifest via functional options, the Go
// idiom substitution for the chained builder in original_source's Rust.
func NewAgentManifest(name string, opts ...ManifestOption) AgentManifest {
	b := &manifestBuilder{}
	for _, opt := range opts {
		opt(b)
	}
	return AgentManifest{
		Name:         name,
		Description:  b.description,
		Inputs:       b.inputs,
		Outputs:      b.outputs,
		Capabilities: b.capabilities,
		Permissions:  b.permissions,
		Resources:    b.resources,
	}
}

// ToolManifest declares a tool's public contract.
type ToolManifest struct {
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Inputs       []Port   `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs      []Port   `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Permissions  []string `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Resources    []string `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// NewToolManifest builds a ToolManifest via functional options.
func NewToolManifest(name string, opts ...ManifestOption) ToolManifest {
	b := &manifestBuilder{}
	for _, opt := range opts {
		opt(b)
	}
	return ToolManifest{
		Name:         name,
		Description:  b.description,
		Inputs:       b.inputs,
		Outputs:      b.outputs,
		Capabilities: b.capabilities,
		Permissions:  b.permissions,
		Resources:    b.resources,
	}
}
