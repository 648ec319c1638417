package driven

// ConfigStore provides persistent key-value configuration.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value, or "" if unset.
	GetString(key string) string

	// GetInt retrieves an integer value, or 0 if unset.
	GetInt(key string) int

	// GetFloat retrieves a float value, or 0 if unset.
	GetFloat(key string) float64

	// Set stores a configuration value.
	Set(key string, value any) error
}

// Configuration keys used by the core.
const (
	ConfigEmbedModel          = "embedding.model"
	ConfigGenerateModel       = "llm.model"
	ConfigChunkSize           = "chunking.size"
	ConfigChunkOverlap        = "chunking.overlap"
	ConfigRetrieveK           = "retrieval.k"
	ConfigRetrieveM           = "retrieval.candidates"
	ConfigConfidenceThreshold = "retrieval.confidence_threshold"
)
