// Package mitm terminates TLS for intercepted hosts using leaf certificates
// minted on demand and signed by a locally held root. Clients that trust the
// root see ordinary HTTPS; the decrypted stream is handed to the proxy's
// dispatch logic like any plain request.
package mitm

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"sync"
	"time"

	"github.com/pysugar/cli-llm-proxy/pkg/llm"
)

const (
	rootValidity = 10 * 365 * 24 * time.Hour
	leafValidity = 397 * 24 * time.Hour
)

// CertRecord is one cached host certificate. Records live for the process
// lifetime; expiry beyond the certificate's own validity window is handled
// by the setup tooling that manages the trust anchor.
type CertRecord struct {
	Host     string
	Cert     *tls.Certificate
	IssuedAt time.Time
}

// Authority holds the root key pair and the per-host leaf cache.
type Authority struct {
	caCert *x509.Certificate
	caKey  *ecdsa.PrivateKey
	caTLS  tls.Certificate

	mu    sync.RWMutex
	cache map[string]*CertRecord
}

// LoadAuthority builds an Authority from PEM-encoded root certificate and
// key material, typically produced by the setup tooling.
func LoadAuthority(certPEM, keyPEM []byte) (*Authority, error) {
	pair, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse root key pair: %w", err)
	}
	caCert, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse root certificate: %w", err)
	}
	caKey, ok := pair.PrivateKey.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("root key must be ECDSA, got %T", pair.PrivateKey)
	}
	return &Authority{
		caCert: caCert,
		caKey:  caKey,
		caTLS:  pair,
		cache:  make(map[string]*CertRecord),
	}, nil
}

// GenerateAuthority creates a fresh self-signed root. Used for development
// and tests; production deployments load persisted root material so clients
// only need to trust one anchor.
func GenerateAuthority(commonName string) (*Authority, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	serial, err := randomSerial()
	if err != nil {
		return nil, err
	}
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   commonName,
			Organization: []string{"cli-llm-proxy"},
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(rootValidity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	caCert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}
	return &Authority{
		caCert: caCert,
		caKey:  key,
		caTLS: tls.Certificate{
			Certificate: [][]byte{der},
			PrivateKey:  key,
		},
		cache: make(map[string]*CertRecord),
	}, nil
}

// CACertPEM returns the PEM-encoded root certificate for distribution to
// clients.
func (a *Authority) CACertPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: a.caCert.Raw})
}

// CAKeyPEM returns the PEM-encoded root private key for persistence by the
// setup tooling. Handle with the same care as any signing key.
func (a *Authority) CAKeyPEM() ([]byte, error) {
	der, err := x509.MarshalECPrivateKey(a.caKey)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), nil
}

// Leaf returns the cached certificate record for host, minting one on first
// use. Issuance is serialized under the write lock so concurrent requests
// for the same host never clobber each other; the second caller gets the
// identical record.
func (a *Authority) Leaf(host string) (*CertRecord, error) {
	a.mu.RLock()
	rec, ok := a.cache[host]
	a.mu.RUnlock()
	if ok {
		return rec, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if rec, ok := a.cache[host]; ok {
		return rec, nil
	}
	cert, err := a.mint(host)
	if err != nil {
		return nil, &llm.CertificateIssuanceError{Host: host, Err: err}
	}
	rec = &CertRecord{Host: host, Cert: cert, IssuedAt: time.Now()}
	a.cache[host] = rec
	return rec, nil
}

// GetCertificate plugs the cache into tls.Config. The SNI server name wins;
// fallback is the host the CONNECT named.
func (a *Authority) GetCertificate(fallbackHost string) func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return func(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
		host := hello.ServerName
		if host == "" {
			host = fallbackHost
		}
		rec, err := a.Leaf(host)
		if err != nil {
			return nil, err
		}
		return rec.Cert, nil
	}
}

func (a *Authority) mint(host string) (*tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	serial, err := randomSerial()
	if err != nil {
		return nil, err
	}
	template := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: host},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(leafValidity),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	if ip := net.ParseIP(host); ip != nil {
		template.IPAddresses = []net.IP{ip}
	} else {
		template.DNSNames = []string{host}
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, a.caCert, &key.PublicKey, a.caKey)
	if err != nil {
		return nil, err
	}
	return &tls.Certificate{
		Certificate: [][]byte{der, a.caCert.Raw},
		PrivateKey:  key,
	}, nil
}

func randomSerial() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	return rand.Int(rand.Reader, limit)
}
