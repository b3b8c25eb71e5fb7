package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/rfxcom2mqtt/backend/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second
)

// buildClientOptions creates paho MQTT options from rfxcom2mqtt config.
func buildClientOptions(cfg config.MQTTConfig, topics Topics) (*pahomqtt.ClientOptions, error) {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.TLS || cfg.CA != "" {
		scheme = "ssl"
	}
	port := cfg.Port
	if port == 0 {
		port = 1883
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Server, port))

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "rfxcom2mqtt_" + uuid.NewString()[:8]
	}
	opts.SetClientID(clientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(defaultConnectTimeout)

	keepalive := defaultKeepAlive
	if cfg.Keepalive > 0 {
		keepalive = time.Duration(cfg.Keepalive) * time.Second
	}
	opts.SetKeepAlive(keepalive)

	// LWT: the broker marks the bridge offline on unexpected disconnect.
	opts.SetWill(topics.Will(), "offline", 1, true)

	if scheme == "ssl" {
		tlsConfig, err := buildTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsConfig)
	}

	return opts, nil
}

// buildTLSConfig assembles the TLS configuration from the CA and client
// certificate paths in the settings file.
func buildTLSConfig(cfg config.MQTTConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.CA != "" {
		pem, err := os.ReadFile(cfg.CA)
		if err != nil {
			return nil, fmt.Errorf("reading CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("parsing CA certificate %s", cfg.CA)
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.Key != "" && cfg.Cert != "" {
		cert, err := tls.LoadX509KeyPair(cfg.Cert, cfg.Key)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}
