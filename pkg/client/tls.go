package client

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
)

// CertBundle holds PEM-encoded client certificate material for APIs that
// require mutual TLS.
type CertBundle struct {
	// CertPEM is the client certificate.
	CertPEM string

	// PrivateKeyPEM is the client private key. Keep this secret.
	PrivateKeyPEM string

	// CAPEM verifies the server certificate. Empty means the system roots.
	CAPEM string
}

// LoadCertBundle reads cert.pem and key.pem from dir, plus ca.pem when present.
//
//	bundle, err := client.LoadCertBundle(os.ExpandEnv("$HOME/.wexapi/certs"))
func LoadCertBundle(dir string) (*CertBundle, error) {
	read := func(name string) (string, error) {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		return string(b), nil
	}

	cert, err := read("cert.pem")
	if err != nil {
		return nil, err
	}
	key, err := read("key.pem")
	if err != nil {
		return nil, err
	}
	ca, err := read("ca.pem")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return &CertBundle{CertPEM: cert, PrivateKeyPEM: key, CAPEM: ca}, nil
}

// WithMTLS presents the given client certificate on every connection. The
// current request timeout is kept.
func WithMTLS(certPEM, keyPEM, caPEM string) Option {
	return func(c *Client) error {
		clientCert, err := tls.X509KeyPair([]byte(certPEM), []byte(keyPEM))
		if err != nil {
			return fmt.Errorf("parse mTLS cert/key: %w", err)
		}

		var pool *x509.CertPool
		if caPEM != "" {
			pool = x509.NewCertPool()
			if !pool.AppendCertsFromPEM([]byte(caPEM)) {
				return fmt.Errorf("failed to parse CA certificate PEM")
			}
		}

		tlsCfg := &tls.Config{
			Certificates: []tls.Certificate{clientCert},
			RootCAs:      pool,
			MinVersion:   tls.VersionTLS12,
		}

		c.httpClient = &http.Client{
			Transport: &http.Transport{TLSClientConfig: tlsCfg},
			Timeout:   c.httpClient.Timeout,
		}
		return nil
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
// Only use this in development against a self-signed API.
func WithInsecureSkipVerify() Option {
	return func(c *Client) error {
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
			Timeout: c.httpClient.Timeout,
		}
		return nil
	}
}

// WithCertDir loads a CertBundle from dir and configures mTLS with it.
//
//	c, err := client.New(baseURL,
//	    client.WithCertDir(certDir),
//	    client.WithCacheTTL(30*time.Second),
//	)
func WithCertDir(dir string) Option {
	return func(c *Client) error {
		bundle, err := LoadCertBundle(dir)
		if err != nil {
			return fmt.Errorf("load cert bundle from %q: %w", dir, err)
		}
		return WithMTLS(bundle.CertPEM, bundle.PrivateKeyPEM, bundle.CAPEM)(c)
	}
}
