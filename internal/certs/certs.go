// Package certs keeps a self-signed certificate for serving the scan API
// over HTTPS on a local network.
package certs

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
	"os"
	"path/filepath"
	"slices"
	"time"
)

const validity = 365 * 24 * time.Hour

// Store keeps a certificate and key pair in a directory.
type Store struct {
	now      func() time.Time
	certFile string
	keyFile  string
	dir      string
	hosts    []string
}

// NewStore creates a store in dir whose certificate covers localhost and
// every extra host name or IP in hosts.
func NewStore(dir string, hosts ...string) *Store {
	all := []string{"localhost", "127.0.0.1", "::1"}
	for _, h := range hosts {
		if h != "" && !slices.Contains(all, h) {
			all = append(all, h)
		}
	}
	return &Store{
		dir:      dir,
		certFile: filepath.Join(dir, "binwise.crt"),
		keyFile:  filepath.Join(dir, "binwise.key"),
		hosts:    all,
		now:      time.Now,
	}
}

// CertFile is the path of the PEM certificate, for importing into a device.
func (s *Store) CertFile() string { return s.certFile }

// Certificate returns the stored certificate, issuing a new one when none
// exists, it has expired, or it does not cover every host.
func (s *Store) Certificate() (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(s.certFile, s.keyFile)
	if err == nil && s.usable(cert) == nil {
		return cert, nil
	}
	return s.issue()
}

func (s *Store) usable(cert tls.Certificate) error {
	if len(cert.Certificate) == 0 {
		return fmt.Errorf("no certificate in chain")
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}

	now := s.now()
	if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
		return fmt.Errorf("certificate outside its validity window")
	}
	for _, h := range s.hosts {
		if err := leaf.VerifyHostname(h); err != nil {
			return fmt.Errorf("certificate does not cover %s: %w", h, err)
		}
	}
	return nil
}

func (s *Store) issue() (tls.Certificate, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate directory: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := s.now()
	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"binwise"}, CommonName: "binwise local API"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range s.hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to encode key: %w", err)
	}

	if err := writePEM(s.certFile, "CERTIFICATE", der); err != nil {
		return tls.Certificate{}, err
	}
	if err := writePEM(s.keyFile, "EC PRIVATE KEY", keyDER); err != nil {
		return tls.Certificate{}, err
	}
	return tls.LoadX509KeyPair(s.certFile, s.keyFile)
}

func writePEM(path, blockType string, der []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
