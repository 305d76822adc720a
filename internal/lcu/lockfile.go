package lcu

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Credentials are the connection parameters the client writes to its
// lockfile on startup: name:pid:port:password:protocol.
type Credentials struct {
	Name     string
	PID      int
	Port     int
	Password string
	Protocol string
}

// ParseLockfile reads and parses the client lockfile. The file exists only
// while the client is running, so a missing file means "client not up" and
// callers should retry rather than abort.
func ParseLockfile(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("read lockfile: %w", err)
	}
	return parseLockfileBody(string(data))
}

func parseLockfileBody(body string) (Credentials, error) {
	parts := strings.Split(strings.TrimSpace(body), ":")
	if len(parts) != 5 {
		return Credentials{}, fmt.Errorf("lockfile: want 5 fields, got %d", len(parts))
	}
	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return Credentials{}, fmt.Errorf("lockfile pid: %w", err)
	}
	port, err := strconv.Atoi(parts[2])
	if err != nil {
		return Credentials{}, fmt.Errorf("lockfile port: %w", err)
	}
	return Credentials{
		Name:     parts[0],
		PID:      pid,
		Port:     port,
		Password: parts[3],
		Protocol: parts[4],
	}, nil
}

// DefaultLockfilePaths lists the install locations probed when no explicit
// path is configured, most common first.
func DefaultLockfilePaths() []string {
	return []string{
		`C:\Riot Games\League of Legends\lockfile`,
		`D:\Riot Games\League of Legends\lockfile`,
		`/Applications/League of Legends.app/Contents/LoL/lockfile`,
	}
}

// FindLockfile returns the first readable lockfile among explicit (if
// non-empty) and the default locations.
func FindLockfile(explicit string) (string, error) {
	candidates := DefaultLockfilePaths()
	if explicit != "" {
		candidates = append([]string{explicit}, candidates...)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("lockfile not found; is the client running?")
}

// WatchLockfile polls the lockfile and calls onChange whenever its
// credentials differ from the last observed set; a restarted client
// writes a fresh port and password. The initial credentials are not
// reported. A missing or unreadable file means "client down", which is
// never fatal.
func WatchLockfile(ctx context.Context, explicit string, interval time.Duration,
	last Credentials, onChange func(Credentials), log *zap.Logger) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
		path, err := FindLockfile(explicit)
		if err != nil {
			continue
		}
		creds, err := ParseLockfile(path)
		if err != nil || creds == last {
			continue
		}
		log.Info("lockfile changed, reconnecting",
			zap.Int("port", creds.Port), zap.Int("pid", creds.PID))
		last = creds
		onChange(creds)
	}
}
