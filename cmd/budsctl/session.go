package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/budsctl/internal/bluez"
	"github.com/muurk/budsctl/internal/connection"
	"github.com/muurk/budsctl/internal/instance"
	"github.com/muurk/budsctl/internal/logging"
	"github.com/muurk/budsctl/internal/profile"
	"github.com/muurk/budsctl/internal/transport"
	"github.com/muurk/budsctl/internal/ui"
	"github.com/muurk/budsctl/internal/urls"
)

// session owns a connection manager and everything it needs: the instance
// lock, the BlueZ client and the optional capture file.
type session struct {
	manager  *connection.Manager
	target   connection.Target
	registry *profile.Registry
	lock     *instance.Lock
	bluez    *bluez.Client
	capture  *transport.Capture
}

// openSession takes the instance lock, resolves the device and builds a
// stopped manager for it.
func openSession(ctx context.Context) (*session, error) {
	lock, err := instance.Acquire(instance.DefaultPath())
	if err != nil {
		return nil, err
	}
	s := &session{lock: lock, registry: profile.Default()}

	if client, err := bluez.Dial(); err != nil {
		logging.Debug("BlueZ unavailable", zap.Error(err))
	} else {
		s.bluez = client
	}

	override, err := profileOverride(s.registry)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.target, err = resolveTarget(ctx, s.bluez, s.registry)
	if err != nil {
		s.Close()
		return nil, err
	}

	if cfg.CaptureDir != "" {
		s.capture, err = transport.CreateCapture(cfg.CaptureDir)
		if err != nil {
			s.Close()
			return nil, err
		}
		logging.Info("Capturing packets", zap.String("file", s.capture.Path()))
	}

	opts := connection.Options{
		Address:     s.target.Address,
		Name:        s.target.Name,
		Registry:    s.registry,
		Profile:     override,
		Capture:     s.capture,
		BackoffBase: cfg.Backoff.Base(),
		BackoffMax:  cfg.Backoff.Max(),
	}
	if s.bluez != nil {
		opts.Resetter = s.bluez
	}
	s.manager = connection.New(opts)
	return s, nil
}

// Close stops the manager and releases everything the session holds.
func (s *session) Close() {
	if s.manager != nil {
		s.manager.Stop()
		s.manager.Wait()
	}
	if s.capture != nil {
		if err := s.capture.Close(); err != nil {
			logging.Warn("Failed to close capture", zap.Error(err))
		}
	}
	if s.bluez != nil {
		s.bluez.Close()
	}
	if err := s.lock.Release(); err != nil {
		logging.Warn("Failed to release instance lock", zap.Error(err))
	}
}

// profileName returns the name of the profile the target will use.
func (s *session) profileName() string {
	if profileName != "" {
		return profileName
	}
	return s.registry.Match(s.target.Name, s.target.Address.String()).Name
}

// profileOverride returns a builder for --profile, or nil when unset.
func profileOverride(reg *profile.Registry) (profile.Builder, error) {
	if profileName == "" {
		return nil, nil
	}
	if !reg.Known(profileName) && !strings.EqualFold(profileName, "probe") {
		return nil, fmt.Errorf("unknown profile %q (see 'budsctl profiles')", profileName)
	}
	name := profileName
	return func() *profile.Profile { return reg.Match(name, "") }, nil
}

// resolveTarget uses the configured address when set and asks BlueZ for a
// supported paired device otherwise.
func resolveTarget(ctx context.Context, client *bluez.Client, reg *profile.Registry) (connection.Target, error) {
	addr, err := cfg.Address()
	if err != nil {
		return connection.Target{}, err
	}

	if !addr.IsZero() {
		target := connection.Target{Address: addr, Name: cfg.DeviceName}
		if client != nil {
			if devices, err := client.PairedDevices(ctx); err == nil {
				for _, d := range devices {
					if strings.EqualFold(d.Address, addr.String()) {
						target.Name = d.Name
					}
				}
			}
		}
		return target, nil
	}

	if client == nil {
		return connection.Target{}, errors.New("no device configured and BlueZ is unavailable; pass --device")
	}
	return connection.ResolveTarget(ctx, client, reg, cfg.DeviceName)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// waitConnected blocks until the manager reports a session, ctx ends, or
// timeout passes. It returns the last status seen.
func waitConnected(ctx context.Context, m *connection.Manager, timeout time.Duration) (connection.Status, error) {
	updates, stop := m.Watch()
	defer stop()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	last := m.Status()
	for {
		select {
		case st := <-updates:
			last = st
			if st.Connected() {
				return st, nil
			}
		case <-timer.C:
			if last.Err != nil {
				return last, last.Err
			}
			return last, fmt.Errorf("not connected after %s", timeout)
		case <-ctx.Done():
			return last, ctx.Err()
		}
	}
}

// printConnectFailure shows an error box with hints for err.
func printConnectFailure(printer *ui.Printer, title string, err error) {
	hints := []string{transport.GetTroubleshootingHint(err)}
	if errors.Is(err, instance.ErrAlreadyRunning) {
		hints = []string{"Stop the other budsctl process, or use 'budsctl discover' to reach its bridge"}
	}
	if errors.Is(err, connection.ErrNoTarget) {
		hints = []string{
			"Pair the earbuds with this computer first",
			"Or pass the address explicitly: --device AA:BB:CC:DD:EE:FF",
			"List what BlueZ knows: budsctl devices",
		}
	}
	hints = append(hints, "Troubleshooting guide: "+urls.TroubleshootingGuide)
	printer.PrintError(title, err, hints)
}
