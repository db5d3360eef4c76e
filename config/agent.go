package config

// RouteMode selects whether an Agent node's response is parsed for a route.
type RouteMode string

const (
	RouteManual RouteMode = "manual"
	RouteAuto   RouteMode = "auto"
)

// AgentDescriptor configures one LLM-backed agent node. Driver identifiers
// are opaque strings; no per-driver logic lives in the core, only a lookup
// in an LlmClientFactory (spec.md section 3).
type AgentDescriptor struct {
	Name         string     `json:"name" yaml:"name"`
	DriverID     string     `json:"driver_id" yaml:"driver_id"`
	Role         string     `json:"role,omitempty" yaml:"role,omitempty"`
	SystemPrompt string     `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	Model        string     `json:"model,omitempty" yaml:"model,omitempty"`
	Endpoint     string     `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	APIKey       string     `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Intent       string     `json:"intent,omitempty" yaml:"intent,omitempty"`
	Tools        []string   `json:"tools,omitempty" yaml:"tools,omitempty"`
	RouteMode    RouteMode  `json:"route_mode,omitempty" yaml:"route_mode,omitempty"`
	RouteTargets []string   `json:"route_targets,omitempty" yaml:"route_targets,omitempty"`
	RoutePrompt  string     `json:"route_prompt,omitempty" yaml:"route_prompt,omitempty"`
	DefaultRoute string     `json:"default_route,omitempty" yaml:"default_route,omitempty"`
	Temperature  *float64   `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	Rules        AgentRules `json:"rules,omitempty" yaml:"rules,omitempty"`

	// TimeoutSeconds bounds a single LLM chat call (spec.md section 5);
	// zero means no timeout is applied.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// AgentRules holds per-agent tuning, all optional with documented defaults
// (spec.md section 3). Defaults here mirror the original Rust source
// (_examples/original_source/src/flow/config/agent.rs) verbatim.
type AgentRules struct {
	FieldExtraction FieldExtractionRules `json:"field_extraction,omitempty" yaml:"field_extraction,omitempty"`
	PromptBuilding  PromptBuildingRules  `json:"prompt_building,omitempty" yaml:"prompt_building,omitempty"`
	Routing         RoutingRules         `json:"routing,omitempty" yaml:"routing,omitempty"`
	PayloadBuilding PayloadBuildingRules `json:"payload_building,omitempty" yaml:"payload_building,omitempty"`

	// LlmRetries is the number of additional attempts the AgentRunner makes
	// on a transport failure before giving up, per spec.md section 4.3
	// ("retried once transparently if rules specifies retries"). Zero by
	// default, i.e. no retry.
	LlmRetries uint32 `json:"llm_retries,omitempty" yaml:"llm_retries,omitempty"`
}

// FieldExtractionRules controls how an agent pulls "user input" out of a
// payload and which response fields get written back to the scoped store.
type FieldExtractionRules struct {
	UserInputFields []string          `json:"user_input_fields,omitempty" yaml:"user_input_fields,omitempty"`
	StepsField      string            `json:"steps_field,omitempty" yaml:"steps_field,omitempty"`
	ExtractToState  map[string]string `json:"extract_to_state,omitempty" yaml:"extract_to_state,omitempty"`
}

// DefaultUserInputFields is the priority list used when an agent's
// field_extraction.user_input_fields is unset.
func DefaultUserInputFields() []string { return []string{"response", "raw", "user", "goal"} }

// DefaultStepsField is the payload field name used to track prior agent
// steps when field_extraction.steps_field is unset.
const DefaultStepsField = "steps"

// WithDefaults returns a copy of r with documented defaults filled in.
func (r FieldExtractionRules) WithDefaults() FieldExtractionRules {
	if len(r.UserInputFields) == 0 {
		r.UserInputFields = DefaultUserInputFields()
	}
	if r.StepsField == "" {
		r.StepsField = DefaultStepsField
	}
	return r
}

// PromptBuildingRules controls system-prompt assembly.
type PromptBuildingRules struct {
	RoleTemplate      string   `json:"role_template,omitempty" yaml:"role_template,omitempty"`
	RolePromptTemplate string  `json:"role_prompt_template,omitempty" yaml:"role_prompt_template,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxHistoryItems   *int     `json:"max_history_items,omitempty" yaml:"max_history_items,omitempty"`
	IncludeStoreKeys  []string `json:"include_store_keys,omitempty" yaml:"include_store_keys,omitempty"`
}

const (
	// DefaultRoleTemplate renders when only a role is configured.
	DefaultRoleTemplate = "You are {role}."
	// DefaultRolePromptTemplate renders when both role and prompt are set.
	DefaultRolePromptTemplate = "You are {role}. {prompt}"
	// DefaultTemperature is used when neither the agent nor its prompt
	// building rules set one.
	DefaultTemperature = 0.7
	// DefaultMaxHistoryItems bounds how many prior history entries are
	// summarized into a prompt.
	DefaultMaxHistoryItems = 3
)

// WithDefaults returns a copy of r with documented defaults filled in.
func (r PromptBuildingRules) WithDefaults() PromptBuildingRules {
	if r.RoleTemplate == "" {
		r.RoleTemplate = DefaultRoleTemplate
	}
	if r.RolePromptTemplate == "" {
		r.RolePromptTemplate = DefaultRolePromptTemplate
	}
	if r.Temperature == nil {
		t := DefaultTemperature
		r.Temperature = &t
	}
	if r.MaxHistoryItems == nil {
		n := DefaultMaxHistoryItems
		r.MaxHistoryItems = &n
	}
	return r
}

// RoutingRules controls auto-routing label normalization and response
// fence-stripping. Defaults mirror original_source/src/flow/constants.rs.
type RoutingRules struct {
	TargetSeparator string   `json:"target_separator,omitempty" yaml:"target_separator,omitempty"`
	TargetPrefixes  []string `json:"target_prefixes,omitempty" yaml:"target_prefixes,omitempty"`
	TargetSuffixes  []string `json:"target_suffixes,omitempty" yaml:"target_suffixes,omitempty"`
	JSONCodeFence   string   `json:"json_code_block_start,omitempty" yaml:"json_code_block_start,omitempty"`
	CodeFenceStart  string   `json:"code_block_start,omitempty" yaml:"code_block_start,omitempty"`
	CodeFenceEnd    string   `json:"code_block_end,omitempty" yaml:"code_block_end,omitempty"`
}

// WithDefaults returns a copy of r with documented defaults filled in.
func (r RoutingRules) WithDefaults() RoutingRules {
	if r.TargetSeparator == "" {
		r.TargetSeparator = "_"
	}
	if r.TargetPrefixes == nil {
		r.TargetPrefixes = []string{"node"}
	}
	if r.TargetSuffixes == nil {
		r.TargetSuffixes = []string{"handler"}
	}
	if r.JSONCodeFence == "" {
		r.JSONCodeFence = "```json"
	}
	if r.CodeFenceStart == "" {
		r.CodeFenceStart = "```"
	}
	if r.CodeFenceEnd == "" {
		r.CodeFenceEnd = "```"
	}
	return r
}

// PayloadBuildingRules controls what extra fields an agent copies forward
// into its outgoing payload, and image-handling knobs for vision models.
type PayloadBuildingRules struct {
	FieldsToAdd     []string              `json:"fields_to_add,omitempty" yaml:"fields_to_add,omitempty"`
	ImageProcessing *ImageProcessingRules `json:"image_processing,omitempty" yaml:"image_processing,omitempty"`
}

// ImageProcessingRules lists the model-name keywords that mark a driver as
// vision-capable.
type ImageProcessingRules struct {
	VisionKeywords []string `json:"vision_keywords,omitempty" yaml:"vision_keywords,omitempty"`
}

// DefaultVisionKeywords is used when ImageProcessingRules.VisionKeywords is unset.
func DefaultVisionKeywords() []string { return []string{"vl", "vision"} }
