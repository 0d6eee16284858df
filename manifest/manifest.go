// Package manifest resolves native messaging host names to their manifest
// descriptors. Browsers install a small JSON file per host that names the
// helper executable, its transport type, and the extensions allowed to talk
// to it; this package searches the platform's manifest directories and
// validates what it finds.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/yllada/xvpnctl/common"
)

// Manifest is the resolved native messaging host descriptor.
type Manifest = common.ManifestData

// Resolver searches the platform's native messaging directories.
// The zero value is usable; ExtraDirs can prepend additional search paths
// (useful in tests and for non-standard installs).
type Resolver struct {
	// ExtraDirs are searched before the platform defaults.
	ExtraDirs []string
}

// Resolve finds the manifest for the named helper. The search order is
// ExtraDirs, then user-level browser directories, then system-level ones.
// The first readable, valid manifest wins.
func (r *Resolver) Resolve(name string) (*Manifest, error) {
	fileName := name + ".json"

	var firstErr error
	for _, dir := range r.searchDirs() {
		path := filepath.Join(dir, fileName)
		if !common.FileExists(path) {
			continue
		}

		m, err := Load(path)
		if err != nil {
			// Remember the first broken candidate but keep searching.
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return m, nil
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return nil, fmt.Errorf("%w: %s", common.ErrManifestNotFound, name)
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.WrapError(err, "failed to read manifest")
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, common.WrapError(err, "failed to parse manifest "+path)
	}

	if err := validate(&m); err != nil {
		return nil, err
	}
	m.SourcePath = path
	return &m, nil
}

// validate enforces the invariants the transport relies on: stdio framing
// and an executable that actually exists.
func validate(m *Manifest) error {
	if m.Type != common.TransportStdio {
		return fmt.Errorf("%w: %q", common.ErrUnsupportedProtocol, m.Type)
	}
	if m.Path == "" || !common.FileExists(m.Path) {
		return fmt.Errorf("%w: %s", common.ErrHelperNotFound, m.Path)
	}
	return nil
}

// searchDirs returns the candidate manifest directories for this platform.
func (r *Resolver) searchDirs() []string {
	dirs := append([]string{}, r.ExtraDirs...)

	home, err := os.UserHomeDir()
	if err != nil {
		return dirs
	}

	switch runtime.GOOS {
	case "darwin":
		dirs = append(dirs,
			filepath.Join(home, "Library/Application Support/Google/Chrome/NativeMessagingHosts"),
			filepath.Join(home, "Library/Application Support/Chromium/NativeMessagingHosts"),
			filepath.Join(home, "Library/Application Support/Mozilla/NativeMessagingHosts"),
			"/Library/Google/Chrome/NativeMessagingHosts",
			"/Library/Application Support/Chromium/NativeMessagingHosts",
			"/Library/Application Support/Mozilla/NativeMessagingHosts",
		)
	default:
		dirs = append(dirs,
			filepath.Join(home, ".config/google-chrome/NativeMessagingHosts"),
			filepath.Join(home, ".config/chromium/NativeMessagingHosts"),
			filepath.Join(home, ".mozilla/native-messaging-hosts"),
			"/etc/opt/chrome/native-messaging-hosts",
			"/etc/chromium/native-messaging-hosts",
			"/usr/lib/mozilla/native-messaging-hosts",
		)
	}

	return dirs
}
