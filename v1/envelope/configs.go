package envelope

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Aleph-Alpha/serde/v1/schema_registry"
)

// Property names understood by ConfigFromProperties.
const (
	PropRegistryURL    = "apicurio.registry.url"
	PropIDHandler      = "apicurio.registry.id-handler"
	PropAsConfluent    = "apicurio.registry.as-confluent"
	PropUseHeaders     = "apicurio.registry.use.headers"
	PropRequestHeaders = "apicurio.registry.request.headers."
	PropTrustStoreLoc  = "apicurio.registry.request.ssl.truststore.location"
	PropTrustStoreType = "apicurio.registry.request.ssl.truststore.type"
	PropTrustStorePass = "apicurio.registry.request.ssl.truststore.password"
	PropKeyStoreLoc    = "apicurio.registry.request.ssl.keystore.location"
	PropKeyStoreType   = "apicurio.registry.request.ssl.keystore.type"
	PropKeyStorePass   = "apicurio.registry.request.ssl.keystore.password"
	PropKeyPassword    = "apicurio.registry.request.ssl.key.password"
	PropIsKey          = "apicurio.registry.is-key"
)

// Config holds the settings of one envelope Session.
type Config struct {
	// Registry configures the registry client built when no Registry is
	// passed with WithRegistry. Registry.URL is then required.
	Registry schema_registry.Config `yaml:"registry"`

	// IDHandler names the id handler strategy (see RegisterIDHandler).
	// Empty means DefaultIDHandler.
	IDHandler string `yaml:"id_handler" envconfig:"ENVELOPE_ID_HANDLER"`

	// Handler is a pre-built id handler. It takes precedence over IDHandler
	// and AsConfluent.
	Handler IDHandler `yaml:"-"`

	// AsConfluent forces Legacy4ByteIDHandler for compatibility with
	// 4-byte id producers and consumers.
	AsConfluent bool `yaml:"as_confluent" envconfig:"ENVELOPE_AS_CONFLUENT"`

	// UseHeaders carries the id in message headers instead of inline.
	UseHeaders bool `yaml:"use_headers" envconfig:"ENVELOPE_USE_HEADERS"`

	// IsKey selects the key channel header names instead of the value ones.
	IsKey bool `yaml:"is_key" envconfig:"ENVELOPE_IS_KEY"`
}

// Mode returns the envelope mode selected by UseHeaders.
func (c Config) Mode() Mode {
	if c.UseHeaders {
		return ModeHeaders
	}
	return ModeInline
}

// ConfigFromProperties builds a Config from a flat property map as used by
// Kafka client configuration. Values may be strings or native types. An
// IDHandler value under PropIDHandler is used as Config.Handler.
func ConfigFromProperties(props map[string]interface{}) (Config, error) {
	var cfg Config
	var err error

	if cfg.Registry.URL, err = stringProp(props, PropRegistryURL); err != nil {
		return Config{}, err
	}

	switch v := props[PropIDHandler].(type) {
	case nil:
	case IDHandler:
		cfg.Handler = v
	case string:
		cfg.IDHandler = strings.TrimSpace(v)
	default:
		return Config{}, fmt.Errorf("cannot handle configuration [%s]: %v", PropIDHandler, v)
	}

	if cfg.AsConfluent, err = boolProp(props, PropAsConfluent); err != nil {
		return Config{}, err
	}
	if cfg.UseHeaders, err = boolProp(props, PropUseHeaders); err != nil {
		return Config{}, err
	}
	if cfg.IsKey, err = boolProp(props, PropIsKey); err != nil {
		return Config{}, err
	}

	tls := &cfg.Registry.TLS
	for prop, dst := range map[string]*string{
		PropTrustStoreLoc:  &tls.TrustStoreLocation,
		PropTrustStoreType: &tls.TrustStoreType,
		PropTrustStorePass: &tls.TrustStorePassword,
		PropKeyStoreLoc:    &tls.KeyStoreLocation,
		PropKeyStoreType:   &tls.KeyStoreType,
		PropKeyStorePass:   &tls.KeyStorePassword,
		PropKeyPassword:    &tls.KeyPassword,
	} {
		if *dst, err = stringProp(props, prop); err != nil {
			return Config{}, err
		}
	}

	for k, v := range props {
		name, ok := strings.CutPrefix(k, PropRequestHeaders)
		if !ok || name == "" {
			continue
		}
		if cfg.Registry.RequestHeaders == nil {
			cfg.Registry.RequestHeaders = make(map[string]string)
		}
		cfg.Registry.RequestHeaders[name] = fmt.Sprint(v)
	}

	return cfg, nil
}

func stringProp(props map[string]interface{}, key string) (string, error) {
	switch v := props[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("configuration [%s] must be a string, got %T", key, v)
	}
}

func boolProp(props map[string]interface{}, key string) (bool, error) {
	switch v := props[key].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		if v == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("configuration [%s]: %w", key, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("configuration [%s] must be a bool, got %T", key, v)
	}
}
