package usage

// Event is one generation call.
type Event struct {
	Model        string `json:"model" yaml:"model"`
	Provider     string `json:"provider" yaml:"provider"`
	Operation    string `json:"operation" yaml:"operation"` // plan_campaign, generate_image, ...
	InputTokens  int    `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int    `json:"output_tokens" yaml:"output_tokens"`
	Failed       bool   `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Stats holds counters broken down by model and operation.
type Stats struct {
	Total       Counts            `json:"total" yaml:"total"`
	ByProvider  map[string]Counts `json:"by_provider" yaml:"by_provider"`
	ByModel     map[string]Counts `json:"by_model" yaml:"by_model"`
	ByOperation map[string]Counts `json:"by_operation" yaml:"by_operation"`
}

// Counts holds call and token sums.
type Counts struct {
	Calls    int64 `json:"calls" yaml:"calls"`
	Failures int64 `json:"failures,omitempty" yaml:"failures,omitempty"`
	Input    int64 `json:"input" yaml:"input"`
	Output   int64 `json:"output" yaml:"output"`
	Total    int64 `json:"total" yaml:"total"`
}

func (c *Counts) Add(e Event) {
	c.Calls++
	if e.Failed {
		c.Failures++
	}
	c.Input += int64(e.InputTokens)
	c.Output += int64(e.OutputTokens)
	c.Total += int64(e.InputTokens + e.OutputTokens)
}
