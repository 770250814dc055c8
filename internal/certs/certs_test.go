package certs

import (
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificateIssuedAndReused(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	store := NewStore(dir, "192.168.1.20", "binwise.lan")

	first, err := store.Certificate()
	require.NoError(t, err)
	require.NotEmpty(t, first.Certificate)

	leaf, err := x509.ParseCertificate(first.Certificate[0])
	require.NoError(t, err)
	for _, host := range []string{"localhost", "127.0.0.1", "::1", "192.168.1.20", "binwise.lan"} {
		assert.NoError(t, leaf.VerifyHostname(host), host)
	}

	info, err := os.Stat(filepath.Join(dir, "binwise.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	second, err := store.Certificate()
	require.NoError(t, err)
	assert.Equal(t, first.Certificate[0], second.Certificate[0])
}

func TestCertificateReissuedForNewHost(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir).Certificate()
	require.NoError(t, err)

	second, err := NewStore(dir, "10.0.0.5").Certificate()
	require.NoError(t, err)
	assert.NotEqual(t, first.Certificate[0], second.Certificate[0])

	leaf, err := x509.ParseCertificate(second.Certificate[0])
	require.NoError(t, err)
	assert.NoError(t, leaf.VerifyHostname("10.0.0.5"))
}

func TestCertificateReissuedWhenExpired(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	first, err := store.Certificate()
	require.NoError(t, err)

	store.now = func() time.Time { return time.Now().Add(2 * validity) }
	second, err := store.Certificate()
	require.NoError(t, err)
	assert.NotEqual(t, first.Certificate[0], second.Certificate[0])
}

func TestCertificateReplacesCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, os.WriteFile(store.CertFile(), []byte("garbage"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "binwise.key"), []byte("garbage"), 0600))

	cert, err := store.Certificate()
	require.NoError(t, err)
	assert.NotEmpty(t, cert.Certificate)
}

func TestNewStoreDeduplicatesHosts(t *testing.T) {
	store := NewStore(t.TempDir(), "localhost", "", "host.lan", "host.lan")
	assert.Equal(t, []string{"localhost", "127.0.0.1", "::1", "host.lan"}, store.hosts)
}
