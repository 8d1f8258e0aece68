package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromProperties(t *testing.T) {
	cfg, err := ConfigFromProperties(map[string]interface{}{
		PropRegistryURL:                  "http://registry:8080/api",
		PropIDHandler:                    "legacy",
		PropAsConfluent:                  "true",
		PropUseHeaders:                   true,
		PropIsKey:                        "false",
		PropTrustStoreLoc:                "/etc/ssl/ca.pem",
		PropTrustStoreType:               "PEM",
		PropKeyStorePass:                 "secret",
		PropRequestHeaders + "X-Tenant":  "acme",
		PropRequestHeaders + "X-Retries": 3,
		"bootstrap.servers":              "localhost:9092",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://registry:8080/api", cfg.Registry.URL)
	assert.Equal(t, "legacy", cfg.IDHandler)
	assert.True(t, cfg.AsConfluent)
	assert.True(t, cfg.UseHeaders)
	assert.False(t, cfg.IsKey)
	assert.Equal(t, ModeHeaders, cfg.Mode())
	assert.Equal(t, "/etc/ssl/ca.pem", cfg.Registry.TLS.TrustStoreLocation)
	assert.Equal(t, "PEM", cfg.Registry.TLS.TrustStoreType)
	assert.Equal(t, "secret", cfg.Registry.TLS.KeyStorePassword)
	assert.Equal(t, map[string]string{"X-Tenant": "acme", "X-Retries": "3"}, cfg.Registry.RequestHeaders)
}

func TestConfigFromProperties_HandlerInstance(t *testing.T) {
	cfg, err := ConfigFromProperties(map[string]interface{}{
		PropIDHandler: Legacy4ByteIDHandler{},
	})
	require.NoError(t, err)
	assert.Equal(t, Legacy4ByteIDHandler{}, cfg.Handler)
	assert.Empty(t, cfg.IDHandler)
	assert.Equal(t, ModeInline, cfg.Mode())
}

func TestConfigFromProperties_Invalid(t *testing.T) {
	_, err := ConfigFromProperties(map[string]interface{}{PropIDHandler: 12})
	assert.Error(t, err)

	_, err = ConfigFromProperties(map[string]interface{}{PropUseHeaders: "maybe"})
	assert.Error(t, err)

	_, err = ConfigFromProperties(map[string]interface{}{PropRegistryURL: 8080})
	assert.Error(t, err)
}

func TestConfigFromProperties_ClassNameAliases(t *testing.T) {
	tests := []struct {
		name  string
		class string
		width int
	}{
		{name: "default", class: "io.apicurio.registry.utils.serde.strategy.DefaultIdHandler", width: DefaultIDWidth},
		{name: "legacy", class: "io.apicurio.registry.utils.serde.strategy.Legacy4ByteIdHandler", width: LegacyIDWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ConfigFromProperties(map[string]interface{}{
				PropRegistryURL: "http://registry:8080/api",
				PropIDHandler:   tt.class,
			})
			require.NoError(t, err)

			s, err := NewSession(cfg)
			require.NoError(t, err)
			defer s.Close()
			assert.Equal(t, tt.width, s.IDHandler().Width())
		})
	}
}
