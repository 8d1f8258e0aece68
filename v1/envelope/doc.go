// Package envelope tags serialized payloads with the registry global id of
// the schema that describes them, and recovers that id on the consuming side.
//
// The payload codec (JSON, Avro, Protobuf, ...) is not this package's concern;
// it only frames the id around or beside opaque bytes.
//
// Wire Format:
//
// Inline mode (the default) prefixes the payload:
//
//	[magic_byte 0x0 (1 byte)] [global_id (8 or 4 bytes, big-endian)] [payload]
//
// Header mode leaves the payload untouched and stores the encoded id in a
// message header, one name per channel:
//
//	apicurio.key.globalId    key channel
//	apicurio.value.globalId  value channel
//
// The id width is chosen by an IDHandler: DefaultIDHandler uses 8 bytes,
// Legacy4ByteIDHandler uses 4 bytes and is what Confluent-compatible tools
// expect. Producer and consumer must agree on mode and handler; nothing on the
// wire says which was used.
//
// Basic Usage:
//
//	session, err := envelope.NewSession(envelope.Config{
//		Registry: schema_registry.Config{URL: "http://localhost:8080/api"},
//	})
//	if err != nil {
//		return err
//	}
//	defer session.Close()
//
//	id, err := session.Resolve(ctx, envelope.ArtifactReference{ArtifactID: "orders-value"})
//	if err != nil {
//		return err
//	}
//
//	data, headers, err := session.Write(payload, id)
//	// ... send data and headers ...
//
//	id, payload, err = session.Read(data, headers)
//
// Kafka-style Properties:
//
//	cfg, err := envelope.ConfigFromProperties(map[string]interface{}{
//		"apicurio.registry.url":          "http://localhost:8080/api",
//		"apicurio.registry.as-confluent": "true",
//		"apicurio.registry.use.headers":  "true",
//	})
//
// Custom id handlers are registered by name and selected through
// Config.IDHandler:
//
//	envelope.RegisterIDHandler("tenant", func() envelope.IDHandler { return tenantHandler{} })
//
// Errors:
//
// Every failure wraps one of the package sentinels (ErrMalformedEnvelope,
// ErrTruncatedEnvelope, ErrMissingEnvelopeHeader, ErrValueOutOfRange,
// ErrUnresolvedReference, ErrResolutionFailed, ErrMissingConfiguration).
// None are retried and a failed Read never returns a partial payload.
//
// Thread Safety:
//
// Write and Read are safe for concurrent use. Resolve is safe when the
// Registry is; *schema_registry.Client is. Close may be called from any
// goroutine once no operation is in flight.
package envelope
