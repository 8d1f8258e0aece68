package schema_registry

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/Aleph-Alpha/serde/v1/observability"
	"golang.org/x/sync/singleflight"
)

// Client is the default implementation of Registry
// that communicates with an Apicurio registry over HTTP.
//
// Client implements the Registry interface.
type Client struct {
	url        string
	httpClient *http.Client
	headers    map[string]string

	// Cache for version metadata by "artifactID@version"
	versionCache      map[string]*VersionMetadata
	versionCacheMutex sync.RWMutex

	// Cache for artifact content by global id
	schemaCache      map[int64]string
	schemaCacheMutex sync.RWMutex

	// group collapses concurrent identical GETs into one round trip
	group singleflight.Group

	// Authentication
	username string
	password string

	observer observability.Observer

	closeMu sync.RWMutex
	closed  bool
}

// NewClient creates a new registry client
// Returns the concrete *Client type.
func NewClient(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, ErrURLRequired
	}

	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.TLS.Enabled() {
		tlsConfig, err := createTLSConfig(config.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		transport.TLSClientConfig = tlsConfig
	}

	return &Client{
		url: strings.TrimRight(config.URL, "/"),
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		headers:      config.RequestHeaders,
		versionCache: make(map[string]*VersionMetadata),
		schemaCache:  make(map[int64]string),
		username:     config.Username,
		password:     config.Password,
	}, nil
}

// WithObserver attaches an observer notified after every registry request.
func (c *Client) WithObserver(observer observability.Observer) *Client {
	c.observer = observer
	return c
}

// Reset drops the version and schema caches. The client stays usable.
func (c *Client) Reset() {
	c.versionCacheMutex.Lock()
	c.versionCache = make(map[string]*VersionMetadata)
	c.versionCacheMutex.Unlock()

	c.schemaCacheMutex.Lock()
	c.schemaCache = make(map[int64]string)
	c.schemaCacheMutex.Unlock()
}

// Close releases idle connections. Calling Close more than once is a no-op.
func (c *Client) Close() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) isClosed() bool {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()
	return c.closed
}

// createTLSConfig creates a TLS configuration from the truststore/keystore settings
func createTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.TrustStoreLocation != "" {
		pool, err := loadTrustStore(cfg)
		if err != nil {
			return nil, err
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.KeyStoreLocation != "" {
		cert, err := loadKeyStore(cfg)
		if err != nil {
			return nil, err
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}
