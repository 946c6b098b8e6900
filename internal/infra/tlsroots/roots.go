// Package tlsroots builds TLS configurations for the Redis listener and
// for clients that connect to it.
//
// Server certificates are served through a Watcher so that renewed files
// on disk are picked up without a restart.
package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNoCertsFound is returned when no certificates are found in a PEM file.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM file")
)

// Pool manages a pool of trusted root certificates.
type Pool struct {
	certPool *x509.CertPool
}

// NewPool creates a certificate pool, seeded with the system roots when
// system is true and they are available.
func NewPool(system bool) *Pool {
	if system {
		if pool, err := x509.SystemCertPool(); err == nil {
			return &Pool{certPool: pool}
		}
	}
	return &Pool{certPool: x509.NewCertPool()}
}

// LoadPool creates a pool holding only the certificates in the PEM file
// at path.
func LoadPool(path string) (*Pool, error) {
	p := NewPool(false)
	if err := p.AddCertFile(path); err != nil {
		return nil, err
	}
	return p, nil
}

// AddCertFile adds certificates from a PEM file.
func (p *Pool) AddCertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
	}
	return p.AddCertPEM(data)
}

// AddCertPEM adds every CERTIFICATE block of pemData.
func (p *Pool) AddCertPEM(pemData []byte) error {
	var added int
	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		p.certPool.AddCert(cert)
		added++
	}

	if added == 0 {
		return ErrNoCertsFound
	}
	return nil
}

// Pool returns the underlying x509.CertPool.
func (p *Pool) Pool() *x509.CertPool {
	return p.certPool
}

// ClientTLSConfig returns a client configuration trusting this pool.
func (p *Pool) ClientTLSConfig(serverName string) *tls.Config {
	return &tls.Config{
		RootCAs:    p.certPool,
		ServerName: serverName,
		MinVersion: tls.VersionTLS12,
	}
}

// ServerTLSConfig returns a listener configuration serving the watcher's
// current certificate. When clientCAs is not nil, clients must present a
// certificate signed by one of them.
func ServerTLSConfig(certs *Watcher, clientCAs *Pool) *tls.Config {
	cfg := &tls.Config{
		GetCertificate: certs.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
	if clientCAs != nil {
		cfg.ClientCAs = clientCAs.certPool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg
}
