package schema_registry

import "time"

const (
	// DefaultTimeout is applied when Config.Timeout is zero.
	DefaultTimeout = 10 * time.Second

	// Key/trust store encodings accepted in TLSConfig. Type names are
	// case-insensitive; "P12" and "PFX" are read as PKCS12.
	StoreTypePEM    = "PEM"
	StoreTypePKCS12 = "PKCS12"
	StoreTypeJKS    = "JKS"
)

// Config holds configuration for the registry client
type Config struct {
	// URL is the registry API base (e.g., "http://localhost:8080/api")
	URL string `yaml:"url" envconfig:"REGISTRY_URL"`

	// Username for basic auth (optional)
	Username string `yaml:"username" envconfig:"REGISTRY_USERNAME"`

	// Password for basic auth (optional)
	Password string `yaml:"password" envconfig:"REGISTRY_PASSWORD"`

	// Timeout for HTTP requests
	Timeout time.Duration `yaml:"timeout" envconfig:"REGISTRY_TIMEOUT"`

	// RequestHeaders are added verbatim to every request sent to the registry
	RequestHeaders map[string]string `yaml:"request_headers"`

	// TLS carries the transport security settings
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig mirrors the truststore/keystore settings of the registry request
// configuration. Stores are PEM (the default), PKCS12 or JKS files. A PEM
// truststore holds one or more CA certificates; a PEM keystore holds the client
// certificate followed by its unencrypted private key. Store passwords unlock
// PKCS12 and JKS stores, and KeyPassword unlocks a JKS private key entry.
type TLSConfig struct {
	TrustStoreLocation string `yaml:"truststore_location" envconfig:"REGISTRY_TRUSTSTORE_LOCATION"`
	TrustStoreType     string `yaml:"truststore_type" envconfig:"REGISTRY_TRUSTSTORE_TYPE"`
	TrustStorePassword string `yaml:"truststore_password" envconfig:"REGISTRY_TRUSTSTORE_PASSWORD"`

	KeyStoreLocation string `yaml:"keystore_location" envconfig:"REGISTRY_KEYSTORE_LOCATION"`
	KeyStoreType     string `yaml:"keystore_type" envconfig:"REGISTRY_KEYSTORE_TYPE"`
	KeyStorePassword string `yaml:"keystore_password" envconfig:"REGISTRY_KEYSTORE_PASSWORD"`
	KeyPassword      string `yaml:"key_password" envconfig:"REGISTRY_KEY_PASSWORD"`

	InsecureSkipVerify bool `yaml:"insecure_skip_verify" envconfig:"REGISTRY_TLS_INSECURE_SKIP_VERIFY"`
}

// Enabled reports whether any TLS setting was supplied.
func (t TLSConfig) Enabled() bool {
	return t.TrustStoreLocation != "" || t.KeyStoreLocation != "" || t.InsecureSkipVerify
}
