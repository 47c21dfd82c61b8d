package bridge

import (
	"crypto/tls"
	"fmt"

	"github.com/muurk/budsctl/internal/logging"
	"go.uber.org/zap"
)

// NewTLSConfig loads a PEM certificate and key for serving wss://.
func NewTLSConfig(certPath, keyPath string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	logging.Info("TLS configuration loaded",
		zap.String("cert", certPath),
		zap.String("key", keyPath),
	)
	return newTLSConfig(cert), nil
}

func newTLSConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		VerifyConnection: func(cs tls.ConnectionState) error {
			logging.Debug("TLS handshake completed",
				zap.String("tls_version", tls.VersionName(cs.Version)),
				zap.String("cipher_suite", tls.CipherSuiteName(cs.CipherSuite)),
				zap.String("server_name", cs.ServerName),
			)
			return nil
		},
	}
}
