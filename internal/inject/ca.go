// Package inject implements the injection planner (C8): certificate/CA
// issuance, service-account bundle synthesis, runtime-socket probing, and
// compose-graph rewriting. It shares no package with internal/apiserver —
// the two processes cooperate only through the filesystem artifacts this
// package writes.
package inject

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// Bundle holds the PEM-encoded certificate material written to the SA
// directory: the CA certificate (readable by clients, never consumed by
// the façade itself), and the façade's own leaf cert/key pair.
type Bundle struct {
	CACertPEM  []byte
	LeafCert   []byte
	LeafKey    []byte
	SANs       []string
}

const (
	caCN   = "h2c-ca"
	leafCN = "h2c-api"
)

// baseSANs are always present on the leaf certificate regardless of
// operator-supplied hosts, so client libraries hitting the façade under any
// of its conventional in-cluster names succeed TLS verification.
var baseSANs = []string{"h2c-api", "kubernetes", "kubernetes.default", "kubernetes.default.svc", "localhost", "127.0.0.1"}

// IssueCA generates a self-signed ECDSA P-256 certificate authority, long
// lived (10 years), with CN h2c-ca.
func issueCA() (*x509.Certificate, *ecdsa.PrivateKey, []byte, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to generate CA key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to generate CA serial: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: caCN},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().AddDate(10, 0, 0),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		IsCA:                  true,
		BasicConstraintsValid: true,
		MaxPathLen:            1,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to self-sign CA: %w", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to parse freshly issued CA: %w", err)
	}

	return cert, priv, encodeCertPEM(der), nil
}

// issueLeaf signs a server certificate for leafCN with the given SANs,
// valid one year, using the CA issued above.
func issueLeaf(caCert *x509.Certificate, caKey *ecdsa.PrivateKey, sans []string) ([]byte, []byte, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate leaf key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate leaf serial: %w", err)
	}

	var ips []net.IP
	var dns []string
	for _, h := range sans {
		if ip := net.ParseIP(h); ip != nil {
			ips = append(ips, ip)
			continue
		}
		dns = append(dns, h)
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: leafCN},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().AddDate(1, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     dns,
		IPAddresses:  ips,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, caCert, &priv.PublicKey, caKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sign leaf certificate: %w", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal leaf key: %w", err)
	}

	return encodeCertPEM(der), encodePrivateKeyPEM(keyDER), nil
}

func encodeCertPEM(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func encodePrivateKeyPEM(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
}

// sanSet merges baseSANs with operator-supplied hosts, deduplicated and
// order-preserving (base first) so the reuse check is stable.
func sanSet(hosts []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, h := range append(append([]string{}, baseSANs...), hosts...) {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

// isSuperset reports whether have contains every SAN in want.
func isSuperset(have, want []string) bool {
	set := map[string]bool{}
	for _, h := range have {
		set[h] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}

// existingSANs reads the SANs off an already-issued leaf certificate.
func existingSANs(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(content)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", path)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse existing leaf certificate: %w", err)
	}
	var sans []string
	sans = append(sans, cert.DNSNames...)
	for _, ip := range cert.IPAddresses {
		sans = append(sans, ip.String())
	}
	return sans, nil
}

// EnsureBundle issues a fresh CA + leaf pair, or reuses an existing one at
// dir if its SAN set is already a superset of what's requested — this
// prevents gratuitous CA rotation on repeated planner runs.
func EnsureBundle(dir string, hosts []string) (*Bundle, error) {
	want := sanSet(hosts)

	caPath := filepath.Join(dir, "ca.crt")
	certPath := filepath.Join(dir, "tls.crt")
	keyPath := filepath.Join(dir, "tls.key")

	if have, err := existingSANs(certPath); err == nil && isSuperset(have, want) {
		caPEM, cErr := os.ReadFile(caPath)
		leafPEM, lErr := os.ReadFile(certPath)
		keyPEM, kErr := os.ReadFile(keyPath)
		if cErr == nil && lErr == nil && kErr == nil {
			return &Bundle{CACertPEM: caPEM, LeafCert: leafPEM, LeafKey: keyPEM, SANs: have}, nil
		}
	}

	caCert, caKey, caPEM, err := issueCA()
	if err != nil {
		return nil, err
	}
	leafPEM, leafKeyPEM, err := issueLeaf(caCert, caKey, want)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := os.WriteFile(caPath, caPEM, 0644); err != nil {
		return nil, fmt.Errorf("failed to write ca.crt: %w", err)
	}
	if err := os.WriteFile(certPath, leafPEM, 0644); err != nil {
		return nil, fmt.Errorf("failed to write tls.crt: %w", err)
	}
	if err := os.WriteFile(keyPath, leafKeyPEM, 0600); err != nil {
		return nil, fmt.Errorf("failed to write tls.key: %w", err)
	}

	return &Bundle{CACertPEM: caPEM, LeafCert: leafPEM, LeafKey: leafKeyPEM, SANs: want}, nil
}
