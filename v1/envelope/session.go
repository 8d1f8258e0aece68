package envelope

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Aleph-Alpha/serde/v1/logger"
	"github.com/Aleph-Alpha/serde/v1/observability"
	"github.com/Aleph-Alpha/serde/v1/schema_registry"
	"go.uber.org/zap"
)

// Session ties an id handler, an envelope mode and a registry together for
// one logical stream (the key or the value channel of a topic).
//
// Write and Read never touch the registry. The registry is created from
// Config.Registry on the first Resolve unless one was supplied with
// WithRegistry; either way the Session owns it and releases it on Close.
//
// A Session is safe for concurrent use as long as its Registry is.
type Session struct {
	cfg     Config
	handler IDHandler
	writer  Writer
	reader  Reader

	logger   Logger
	observer observability.Observer

	// newRegistry builds the registry on first use
	newRegistry func(schema_registry.Config) (Registry, error)

	mu       sync.Mutex
	registry Registry
	resolver *Resolver
	closed   bool
}

// Option customizes a Session built by NewSession.
type Option func(*Session)

// WithRegistry hands a ready registry to the session, which then owns it.
func WithRegistry(r Registry) Option {
	return func(s *Session) {
		s.registry = r
	}
}

// WithLogger sets the logger used for configuration warnings and teardown.
func WithLogger(l Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithIDHandler pre-supplies the id handler. It takes precedence over
// Config.IDHandler and Config.AsConfluent.
func WithIDHandler(h IDHandler) Option {
	return func(s *Session) {
		s.cfg.Handler = h
	}
}

// WithLegacyID is shorthand for WithIDHandler(Legacy4ByteIDHandler{}).
func WithLegacyID() Option {
	return WithIDHandler(Legacy4ByteIDHandler{})
}

// NewSession resolves the id handler and validates the registry settings.
//
// Id handler precedence: Config.Handler, then Config.IDHandler, then
// DefaultIDHandler. Config.AsConfluent overrides an IDHandler name with
// Legacy4ByteIDHandler and logs a warning if the name picked something else.
//
// If NewSession fails, a registry passed with WithRegistry is closed.
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	s := &Session{
		cfg: cfg,
		newRegistry: func(c schema_registry.Config) (Registry, error) {
			return schema_registry.NewClient(c)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.NewFromZap(zap.NewNop())
	}

	handler, err := s.selectIDHandler()
	if err == nil && s.registry == nil && cfg.Registry.URL == "" {
		err = fmt.Errorf("%w: set %s", ErrMissingConfiguration, PropRegistryURL)
	}
	if err != nil {
		s.releaseRegistry()
		return nil, err
	}

	s.handler = handler
	s.writer = NewWriter(handler, cfg.Mode(), cfg.IsKey)
	s.reader = NewReader(handler, cfg.Mode(), cfg.IsKey)
	if s.registry != nil {
		s.resolver = NewResolver(s.registry)
	}

	s.logger.Debug("envelope session opened", nil, map[string]interface{}{
		"id_width": handler.Width(),
		"mode":     cfg.Mode().String(),
		"is_key":   cfg.IsKey,
	})
	return s, nil
}

func (s *Session) selectIDHandler() (IDHandler, error) {
	if s.cfg.Handler != nil {
		return s.cfg.Handler, nil
	}

	var handler IDHandler
	if s.cfg.IDHandler != "" {
		h, err := NewIDHandler(s.cfg.IDHandler)
		if err != nil {
			return nil, err
		}
		handler = h
	}

	if s.cfg.AsConfluent {
		if handler != nil && handler.Width() != LegacyIDWidth {
			s.logger.Warn("duplicate id-handler configuration", nil, map[string]interface{}{
				"id_handler":   s.cfg.IDHandler,
				"as_confluent": true,
			})
		}
		handler = Legacy4ByteIDHandler{}
	}

	if handler == nil {
		handler = DefaultIDHandler{}
	}
	return handler, nil
}

// WithObserver attaches an observer notified after every write, read and resolve.
// It returns the session for chaining.
func (s *Session) WithObserver(observer observability.Observer) *Session {
	s.observer = observer
	return s
}

// IDHandler returns the handler chosen at construction.
func (s *Session) IDHandler() IDHandler {
	return s.handler
}

// Mode returns the envelope mode.
func (s *Session) Mode() Mode {
	return s.cfg.Mode()
}

// IsKey reports whether the session frames key-channel messages.
func (s *Session) IsKey() bool {
	return s.cfg.IsKey
}

// HeaderKeys returns the reserved header names of this session's channel.
func (s *Session) HeaderKeys() HeaderKeys {
	return HeaderKeysFor(s.cfg.IsKey)
}

// Write frames payload with id. See Writer.Write.
func (s *Session) Write(payload []byte, id GlobalID) ([]byte, Headers, error) {
	start := time.Now()
	out, headers, err := s.writer.Write(payload, id)
	s.observeOperation("write", int64(len(payload)), time.Since(start), err)
	return out, headers, err
}

// WriteReference frames payload and, in header mode, records ref next to the id.
func (s *Session) WriteReference(payload []byte, id GlobalID, ref ArtifactReference) ([]byte, Headers, error) {
	start := time.Now()
	out, headers, err := s.writer.WriteReference(payload, id, ref)
	s.observeOperation("write", int64(len(payload)), time.Since(start), err)
	return out, headers, err
}

// Read extracts the id and payload. See Reader.Read.
func (s *Session) Read(data []byte, headers Headers) (GlobalID, []byte, error) {
	start := time.Now()
	id, payload, err := s.reader.Read(data, headers)
	s.observeOperation("read", int64(len(data)), time.Since(start), err)
	return id, payload, err
}

// ReadReference is Read with a fallback for header mode: when the global id
// header is missing but the producer recorded the artifact id (and possibly
// the version), the id is resolved through the registry.
func (s *Session) ReadReference(ctx context.Context, data []byte, headers Headers) (GlobalID, []byte, error) {
	if s.cfg.Mode() != ModeHeaders {
		return s.Read(data, headers)
	}

	id, hasID, ref, err := s.reader.ReadReference(headers)
	if err != nil {
		s.observeOperation("read", int64(len(data)), 0, err)
		return 0, nil, err
	}
	if hasID {
		s.observeOperation("read", int64(len(data)), 0, nil)
		return id, data, nil
	}
	if ref.ArtifactID == "" {
		err = fmt.Errorf("%w: %s", ErrMissingEnvelopeHeader, s.reader.keys.GlobalID)
		s.observeOperation("read", int64(len(data)), 0, err)
		return 0, nil, err
	}

	id, err = s.Resolve(ctx, ref)
	if err != nil {
		return 0, nil, err
	}
	return id, data, nil
}

// Resolve maps ref to its global id through the session's registry.
func (s *Session) Resolve(ctx context.Context, ref ArtifactReference) (GlobalID, error) {
	start := time.Now()
	id, err := s.resolve(ctx, ref)
	s.observeResolve(ref, time.Since(start), err)
	return id, err
}

func (s *Session) resolve(ctx context.Context, ref ArtifactReference) (GlobalID, error) {
	resolver, err := s.getResolver()
	if err != nil {
		return 0, err
	}
	return resolver.Resolve(ctx, ref)
}

// getResolver creates the registry on first use. Once created it is never replaced.
func (s *Session) getResolver() (*Resolver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.resolver != nil {
		return s.resolver, nil
	}

	registry, err := s.newRegistry(s.cfg.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry client: %w", err)
	}
	s.logger.Info("registry client created", nil, map[string]interface{}{
		"url": s.cfg.Registry.URL,
	})
	s.registry = registry
	s.resolver = NewResolver(registry)
	return s.resolver, nil
}

// Reset drops the registry's caches. The session stays usable.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registry != nil && !s.closed {
		s.registry.Reset()
	}
}

// Close releases the registry. It is idempotent and always returns nil;
// release failures are logged at debug level.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.releaseRegistry()
	return nil
}

func (s *Session) releaseRegistry() {
	if s.registry == nil {
		return
	}
	if err := s.registry.Close(); err != nil {
		s.logger.Debug("ignoring registry close error", err, nil)
	}
	s.registry = nil
	s.resolver = nil
}
