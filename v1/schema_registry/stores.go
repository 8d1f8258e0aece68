package schema_registry

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"github.com/pavlo-v-chernykh/keystore-go/v4"
	"software.sslmate.com/src/go-pkcs12"
)

// storeKind normalizes a store type name. An empty type means PEM.
func storeKind(storeType string) (string, error) {
	switch strings.ToUpper(storeType) {
	case "", StoreTypePEM:
		return StoreTypePEM, nil
	case StoreTypePKCS12, "P12", "PFX":
		return StoreTypePKCS12, nil
	case StoreTypeJKS:
		return StoreTypeJKS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedStoreType, storeType)
	}
}

// loadTrustStore reads the CA certificates of the configured truststore.
func loadTrustStore(cfg TLSConfig) (*x509.CertPool, error) {
	kind, err := storeKind(cfg.TrustStoreType)
	if err != nil {
		return nil, fmt.Errorf("truststore: %w", err)
	}
	data, err := os.ReadFile(cfg.TrustStoreLocation)
	if err != nil {
		return nil, fmt.Errorf("failed to read truststore: %w", err)
	}

	pool := x509.NewCertPool()
	added := 0
	switch kind {
	case StoreTypePEM:
		if !pool.AppendCertsFromPEM(data) {
			return nil, fmt.Errorf("failed to parse truststore %s", cfg.TrustStoreLocation)
		}
		return pool, nil

	case StoreTypePKCS12:
		certs, err := pkcs12.DecodeTrustStore(data, cfg.TrustStorePassword)
		if err != nil {
			return nil, fmt.Errorf("failed to decode PKCS12 truststore: %w", err)
		}
		for _, cert := range certs {
			pool.AddCert(cert)
			added++
		}

	case StoreTypeJKS:
		ks := keystore.New()
		if err := ks.Load(bytes.NewReader(data), []byte(cfg.TrustStorePassword)); err != nil {
			return nil, fmt.Errorf("failed to decode JKS truststore: %w", err)
		}
		for _, alias := range ks.Aliases() {
			if !ks.IsTrustedCertificateEntry(alias) {
				continue
			}
			entry, err := ks.GetTrustedCertificateEntry(alias)
			if err != nil {
				return nil, fmt.Errorf("truststore entry %s: %w", alias, err)
			}
			cert, err := x509.ParseCertificate(entry.Certificate.Content)
			if err != nil {
				return nil, fmt.Errorf("truststore entry %s: %w", alias, err)
			}
			pool.AddCert(cert)
			added++
		}
	}

	if added == 0 {
		return nil, fmt.Errorf("truststore %s holds no certificates", cfg.TrustStoreLocation)
	}
	return pool, nil
}

// loadKeyStore reads the client certificate chain and private key of the
// configured keystore. For JKS the key is unlocked with KeyPassword, falling
// back to KeyStorePassword.
func loadKeyStore(cfg TLSConfig) (tls.Certificate, error) {
	kind, err := storeKind(cfg.KeyStoreType)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("keystore: %w", err)
	}
	data, err := os.ReadFile(cfg.KeyStoreLocation)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to read keystore: %w", err)
	}

	switch kind {
	case StoreTypePKCS12:
		key, leaf, chain, err := pkcs12.DecodeChain(data, cfg.KeyStorePassword)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to decode PKCS12 keystore: %w", err)
		}
		cert := tls.Certificate{
			Certificate: [][]byte{leaf.Raw},
			PrivateKey:  key,
			Leaf:        leaf,
		}
		for _, ca := range chain {
			cert.Certificate = append(cert.Certificate, ca.Raw)
		}
		return cert, nil

	case StoreTypeJKS:
		return loadJKSKeyStore(data, cfg)

	default:
		cert, err := tls.X509KeyPair(data, data)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load client cert: %w", err)
		}
		return cert, nil
	}
}

func loadJKSKeyStore(data []byte, cfg TLSConfig) (tls.Certificate, error) {
	ks := keystore.New()
	if err := ks.Load(bytes.NewReader(data), []byte(cfg.KeyStorePassword)); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to decode JKS keystore: %w", err)
	}

	keyPassword := cfg.KeyPassword
	if keyPassword == "" {
		keyPassword = cfg.KeyStorePassword
	}

	for _, alias := range ks.Aliases() {
		if !ks.IsPrivateKeyEntry(alias) {
			continue
		}
		entry, err := ks.GetPrivateKeyEntry(alias, []byte(keyPassword))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("keystore entry %s: %w", alias, err)
		}
		key, err := x509.ParsePKCS8PrivateKey(entry.PrivateKey)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("keystore entry %s: %w", alias, err)
		}

		cert := tls.Certificate{PrivateKey: key}
		for _, c := range entry.CertificateChain {
			cert.Certificate = append(cert.Certificate, c.Content)
		}
		if len(cert.Certificate) == 0 {
			return tls.Certificate{}, fmt.Errorf("keystore entry %s has no certificate chain", alias)
		}
		cert.Leaf, err = x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("keystore entry %s: %w", alias, err)
		}
		return cert, nil
	}

	return tls.Certificate{}, fmt.Errorf("keystore holds no private key entry")
}
