package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/budsctl/internal/bridge"
	"github.com/muurk/budsctl/internal/connection"
	"github.com/muurk/budsctl/internal/discovery"
	"github.com/muurk/budsctl/internal/logging"
	"github.com/muurk/budsctl/internal/ui"
	"github.com/muurk/budsctl/internal/version"
)

// Serve flags
var (
	listenAddr     string
	noAdvertise    bool
	allowedOrigins []string
	tlsCert        string
	tlsKey         string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the connection manager behind a websocket bridge",
	Long: `Keep a session open and expose it to remote front-ends.

Clients connect to ws://<host>:<port>/ws and receive a snapshot of every
property, followed by one message per property change and connection
state change. They may send {"type":"command","group","prop","value"}
messages to change settings. GET /status returns the connection status
as JSON.

Unless disabled, the bridge is advertised over mDNS as _budsctl._tcp so
'budsctl discover' and other front-ends on the LAN can find it.`,
	Example: `  # Serve on the configured address (default :8765)
  budsctl serve

  # Local only, no mDNS advertisement
  budsctl serve --listen 127.0.0.1:8765 --no-advertise

  # Restrict browser clients
  budsctl serve --allowed-origin http://localhost:3000

  # Serve wss:// with your own certificate
  budsctl serve --tls-cert bridge.pem --tls-key bridge.key`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default from config, :8765)")
	serveCmd.Flags().BoolVar(&noAdvertise, "no-advertise", false, "Do not advertise the bridge over mDNS")
	serveCmd.Flags().StringSliceVar(&allowedOrigins, "allowed-origin", nil, "Allowed browser origins (repeatable; default any)")
	serveCmd.Flags().StringVar(&tlsCert, "tls-cert", "", "PEM certificate for wss:// (default from config)")
	serveCmd.Flags().StringVar(&tlsKey, "tls-key", "", "PEM private key for wss:// (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	ctx, cancel := signalContext()
	defer cancel()

	printer := ui.NewPrinter(os.Stdout)
	s, err := openSession(ctx)
	if err != nil {
		printConnectFailure(printer, "Cannot start session", err)
		return err
	}
	defer s.Close()

	listen := cfg.Bridge.Listen
	if listenAddr != "" {
		listen = listenAddr
	}
	bcfg := bridge.Config{Listen: listen, AllowedOrigins: allowedOrigins}
	if certPath, keyPath := bridgeTLSFiles(); certPath != "" {
		bcfg.TLS, err = bridge.NewTLSConfig(certPath, keyPath)
		if err != nil {
			printer.PrintError("Cannot load TLS certificate", err, []string{
				"--tls-cert and --tls-key must point to PEM files",
				"The key must match the certificate",
			})
			return err
		}
	}

	srv := bridge.New(bcfg, s.manager)
	if err := srv.Listen(); err != nil {
		printer.PrintError("Cannot start bridge", err, []string{
			"Another process may be using the port; pick one with --listen",
		})
		return err
	}

	if err := s.manager.Start(ctx); err != nil {
		return err
	}

	info := func(st connection.Status) discovery.Info {
		i := s.bridgeInfo(st)
		i.TLS = bcfg.TLS != nil
		return i
	}

	advertised := "no"
	if cfg.Bridge.Advertise && !noAdvertise {
		adv, err := discovery.Advertise(instanceName(), srv.Port(), info(s.manager.Status()))
		if err != nil {
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			defer adv.Shutdown()
			go keepAdvertised(ctx, adv, s.manager, info)
			advertised = discovery.ServiceType
		}
	}

	printer.PrintHeader("Bridge", "budsctl serve", map[string]string{
		"Device":    s.target.Address.String(),
		"Profile":   s.profileName(),
		"Listen":    srv.Scheme() + "://" + srv.Addr().String() + "/ws",
		"Advertise": advertised,
	})

	if err := srv.Serve(ctx); err != nil {
		return fmt.Errorf("bridge error: %w", err)
	}
	return nil
}

// keepAdvertised refreshes the TXT records when the session's profile
// changes.
func keepAdvertised(ctx context.Context, adv *discovery.Advertiser, m *connection.Manager, info func(connection.Status) discovery.Info) {
	updates, stop := m.Watch()
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			adv.Update(info(st))
		}
	}
}

func (s *session) bridgeInfo(st connection.Status) discovery.Info {
	name := st.Profile
	if name == "" {
		name = s.profileName()
	}
	return discovery.Info{
		Profile: name,
		Device:  s.target.Address.String(),
		Version: version.Version,
	}
}

// bridgeTLSFiles returns the certificate and key paths, flags first.
func bridgeTLSFiles() (string, string) {
	certPath, keyPath := cfg.Bridge.TLSCert, cfg.Bridge.TLSKey
	if tlsCert != "" {
		certPath = tlsCert
	}
	if tlsKey != "" {
		keyPath = tlsKey
	}
	return certPath, keyPath
}

// instanceName is "budsctl on <hostname>", with the pid appended when the
// hostname is unknown.
func instanceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "pid " + strconv.Itoa(os.Getpid())
	}
	return "budsctl on " + host
}
