// Package schema_registry is an HTTP client for an Apicurio schema registry.
//
// It is the registry capability behind envelope sessions: it turns an
// artifact id and optional version into the metadata that carries the
// artifact's global id, and fetches or registers artifact content.
//
// Endpoints used (Apicurio v1 API, relative to Config.URL):
//
//	GET  /artifacts/{id}/meta                  latest version metadata
//	GET  /artifacts/{id}/versions/{v}/meta     version metadata (cached)
//	GET  /ids/{globalId}                       artifact content (cached)
//	POST /artifacts?ifExists=RETURN_OR_UPDATE  register content
//
// Concurrent identical GETs are collapsed into one round trip. Reset drops
// the caches; Close makes every later call fail with ErrClientClosed.
//
// Basic Usage:
//
//	client, err := schema_registry.NewClient(schema_registry.Config{
//		URL:      "https://registry:8443/api",
//		Username: "svc",
//		Password: "secret",
//		TLS: schema_registry.TLSConfig{
//			TrustStoreLocation: "/etc/ssl/registry-ca.pem",
//			TrustStoreType:     schema_registry.StoreTypePEM,
//		},
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	md, err := client.GetArtifactMetadata(ctx, "orders-value")
//	if schema_registry.IsNotFoundError(err) {
//		// unknown artifact
//	}
//	fmt.Println(md.GlobalID)
//
// TLS stores may be PEM, PKCS12 or JKS files. A PEM keystore holds both the
// client certificate and its private key; PKCS12 and JKS stores are unlocked
// with TrustStorePassword, KeyStorePassword and, for JKS keys, KeyPassword.
//
// FX Module Integration:
//
//	app := fx.New(
//		schema_registry.FXModule,
//		fx.Provide(func() schema_registry.Config {
//			return schema_registry.Config{URL: "http://localhost:8080/api"}
//		}),
//	)
package schema_registry
