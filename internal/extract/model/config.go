package model

// ================ Config ================

// LLMConfig configures the text-generation service client.
type LLMConfig struct {
	Model       string  `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	BaseURL     string  `envconfig:"LLM_BASE_URL"`
	APIKey      string  `envconfig:"LLM_API_KEY"`
	Temperature float32 `envconfig:"LLM_TEMPERATURE" default:"0"`
	MaxTokens   int     `envconfig:"LLM_MAX_TOKENS" default:"4096"`
	// Timeout is the per-request ceiling in seconds.
	Timeout int `envconfig:"LLM_TIMEOUT" default:"10"`
	// Structured requests schema-coerced output for shipment extraction.
	// Off, the free-text variant with the repair layer is used instead.
	Structured bool `envconfig:"LLM_STRUCTURED" default:"true"`

	// Retry policy for transient failures. Delays are Go durations.
	MaxAttempts    int    `envconfig:"LLM_MAX_ATTEMPTS" default:"3"`
	RetryBaseDelay string `envconfig:"LLM_RETRY_BASE_DELAY" default:"2s"`
	RetryMaxDelay  string `envconfig:"LLM_RETRY_MAX_DELAY" default:"10s"`
}

// PromptConfig configures prompt resolution.
type PromptConfig struct {
	// DefaultPrompt is the remote name of the shipment extraction prompt.
	// The local fallback file is derived from its last '_' segment.
	DefaultPrompt   string `envconfig:"PROMPT_NAME" default:"shipmentbot_shipment"`
	StoreEndpoint   string `envconfig:"PROMPT_STORE_ENDPOINT"`
	StoreAPIKey     string `envconfig:"PROMPT_STORE_API_KEY"`
	InstructionsDir string `envconfig:"PROMPT_INSTRUCTIONS_DIR" default:"instructions"`
	// CacheEnabled keeps resolved templates for the process lifetime.
	// Off by default: instructions may be edited live in the store.
	CacheEnabled bool `envconfig:"PROMPT_CACHE_ENABLED" default:"false"`
}

// TraceConfig configures the fire-and-forget tracing sink.
type TraceConfig struct {
	Enabled bool   `envconfig:"TRACE_ENABLED" default:"false"`
	Project string `envconfig:"TRACE_PROJECT" default:"shipmentbot"`
}

// SessionConfig configures optional multi-turn session storage.
type SessionConfig struct {
	TTL string `envconfig:"SESSION_TTL" default:"15m"`
}

// GraphConfig selects the orchestration layout.
type GraphConfig struct {
	// Parallel enables the fan-out to the notes and addresses extractors
	// next to the shipment extractor.
	Parallel bool `envconfig:"GRAPH_PARALLEL" default:"true"`
	// Checkpointing persists graph state in memory keyed by thread ID so a
	// follow-up call with the same ID resumes instead of restarting.
	Checkpointing bool `envconfig:"GRAPH_CHECKPOINTING" default:"false"`
}
