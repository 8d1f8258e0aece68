package schema_registry

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pavlo-v-chernykh/keystore-go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"software.sslmate.com/src/go-pkcs12"
)

func newTestCertificate(t *testing.T) (*ecdsa.PrivateKey, *x509.Certificate) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "registry-client"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return key, cert
}

func writeStore(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestStoreKind(t *testing.T) {
	tests := map[string]string{
		"":       StoreTypePEM,
		"pem":    StoreTypePEM,
		"PKCS12": StoreTypePKCS12,
		"p12":    StoreTypePKCS12,
		"PFX":    StoreTypePKCS12,
		"jks":    StoreTypeJKS,
	}
	for in, want := range tests {
		got, err := storeKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := storeKind("BKS")
	assert.ErrorIs(t, err, ErrUnsupportedStoreType)
}

func TestCreateTLSConfig_PKCS12(t *testing.T) {
	key, cert := newTestCertificate(t)

	keyStore, err := pkcs12.Modern.Encode(key, cert, nil, "storepass")
	require.NoError(t, err)
	trustStore, err := pkcs12.Modern.EncodeTrustStore([]*x509.Certificate{cert}, "trustpass")
	require.NoError(t, err)

	cfg := TLSConfig{
		TrustStoreLocation: writeStore(t, "truststore.p12", trustStore),
		TrustStoreType:     "PKCS12",
		TrustStorePassword: "trustpass",
		KeyStoreLocation:   writeStore(t, "keystore.p12", keyStore),
		KeyStoreType:       "PKCS12",
		KeyStorePassword:   "storepass",
	}

	tlsConfig, err := createTLSConfig(cfg)
	require.NoError(t, err)
	require.NotNil(t, tlsConfig.RootCAs)
	require.Len(t, tlsConfig.Certificates, 1)
	assert.Equal(t, "registry-client", tlsConfig.Certificates[0].Leaf.Subject.CommonName)
	assert.Equal(t, cert.Raw, tlsConfig.Certificates[0].Certificate[0])

	chains, err := cert.Verify(x509.VerifyOptions{
		Roots:     tlsConfig.RootCAs,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, chains)

	cfg.KeyStorePassword = "wrong"
	_, err = createTLSConfig(cfg)
	assert.Error(t, err)

	cfg.KeyStorePassword = "storepass"
	cfg.TrustStorePassword = "wrong"
	_, err = createTLSConfig(cfg)
	assert.Error(t, err)
}

func TestCreateTLSConfig_JKS(t *testing.T) {
	key, cert := newTestCertificate(t)
	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	ks := keystore.New()
	require.NoError(t, ks.SetPrivateKeyEntry("client", keystore.PrivateKeyEntry{
		CreationTime:     time.Now(),
		PrivateKey:       pkcs8,
		CertificateChain: []keystore.Certificate{{Type: "X509", Content: cert.Raw}},
	}, []byte("keypass1")))
	require.NoError(t, ks.SetTrustedCertificateEntry("ca", keystore.TrustedCertificateEntry{
		CreationTime: time.Now(),
		Certificate:  keystore.Certificate{Type: "X509", Content: cert.Raw},
	}))

	var buf bytes.Buffer
	require.NoError(t, ks.Store(&buf, []byte("storepass")))
	path := writeStore(t, "registry.jks", buf.Bytes())

	cfg := TLSConfig{
		TrustStoreLocation: path,
		TrustStoreType:     "JKS",
		TrustStorePassword: "storepass",
		KeyStoreLocation:   path,
		KeyStoreType:       "JKS",
		KeyStorePassword:   "storepass",
		KeyPassword:        "keypass1",
	}

	tlsConfig, err := createTLSConfig(cfg)
	require.NoError(t, err)
	require.NotNil(t, tlsConfig.RootCAs)
	require.Len(t, tlsConfig.Certificates, 1)
	assert.Equal(t, "registry-client", tlsConfig.Certificates[0].Leaf.Subject.CommonName)
	assert.IsType(t, &ecdsa.PrivateKey{}, tlsConfig.Certificates[0].PrivateKey)

	cfg.KeyPassword = "wrong-key"
	_, err = createTLSConfig(cfg)
	assert.Error(t, err)
}
