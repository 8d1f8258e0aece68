package metrics

// DefaultAddress is used when Config.Address is empty.
const DefaultAddress = ":9090"

// DefaultNamespace prefixes the operation metrics.
const DefaultNamespace = "serde"

// Config holds the metrics server settings.
type Config struct {
	// Address the /metrics server listens on
	Address string `yaml:"address" envconfig:"METRICS_ADDRESS"`

	// ServiceName is attached to every metric as the "service" label
	ServiceName string `yaml:"service_name" envconfig:"METRICS_SERVICE_NAME"`

	// Namespace prefixes the operation metric names
	Namespace string `yaml:"namespace" envconfig:"METRICS_NAMESPACE"`

	// EnableDefaultCollectors registers the Go, process and build info collectors
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" envconfig:"METRICS_ENABLE_DEFAULT_COLLECTORS"`
}
