// Package platform resolves per-user config and data locations.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// defaultAppName names the config and data directories when none is given.
const defaultAppName = "workboard"

// Paths lists the per-user locations of config and schedule storage.
type Paths struct {
	ConfigPath string
	DataDir    string
	DBPath     string
	// DocsDir holds one file per stored document for the diskv backend.
	DocsDir string
}

// Options selects which application directory to resolve.
type Options struct {
	AppName string
	// DevMode appends "-dev" so development runs never touch real schedules.
	DevMode bool
}

// dirName returns the directory and file stem for opts.
func (o Options) dirName() string {
	name := strings.TrimSpace(o.AppName)
	if name == "" {
		name = defaultAppName
	}
	if o.DevMode {
		name += "-dev"
	}
	return name
}

// Env is the part of the process environment that path resolution reads.
type Env struct {
	GOOS   string
	Home   string
	Getenv func(string) string
}

// CurrentEnv captures the running process environment.
func CurrentEnv() (Env, error) {
	home, err := homedir.Dir()
	if err != nil {
		return Env{}, fmt.Errorf("user home dir: %w", err)
	}
	return Env{GOOS: runtime.GOOS, Home: home, Getenv: os.Getenv}, nil
}

// DefaultPaths resolves paths for the default application name.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{})
}

// DefaultPathsWithOptions resolves paths against the running process environment.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	env, err := CurrentEnv()
	if err != nil {
		return Paths{}, err
	}
	return Resolve(env, opts)
}

// Resolve computes paths for opts under env.
//
// Linux and other unix systems follow XDG (config under $XDG_CONFIG_HOME or ~/.config,
// data under $XDG_DATA_HOME or ~/.local/share). Windows uses %APPDATA% for config and
// %LOCALAPPDATA% for data. macOS keeps both under ~/Library/Application Support.
func Resolve(env Env, opts Options) (Paths, error) {
	configBase, dataBase, err := env.baseDirs()
	if err != nil {
		return Paths{}, err
	}
	name := opts.dirName()
	dataDir := filepath.Join(dataBase, name)
	return Paths{
		ConfigPath: filepath.Join(configBase, name, "config.toml"),
		DataDir:    dataDir,
		DBPath:     filepath.Join(dataDir, name+".db"),
		DocsDir:    filepath.Join(dataDir, "docs"),
	}, nil
}

// baseDirs returns the config and data roots for env.
func (e Env) baseDirs() (string, string, error) {
	home := strings.TrimSpace(e.Home)
	if home == "" {
		return "", "", errors.New("home directory is required")
	}
	switch e.GOOS {
	case "windows":
		return e.lookup("APPDATA", filepath.Join(home, "AppData", "Roaming")),
			e.lookup("LOCALAPPDATA", filepath.Join(home, "AppData", "Local")),
			nil
	case "darwin":
		support := filepath.Join(home, "Library", "Application Support")
		return support, support, nil
	default:
		return e.lookup("XDG_CONFIG_HOME", filepath.Join(home, ".config")),
			e.lookup("XDG_DATA_HOME", filepath.Join(home, ".local", "share")),
			nil
	}
}

// lookup returns the named variable, or fallback when it is unset or relative.
// XDG treats relative base directories as invalid.
func (e Env) lookup(name, fallback string) string {
	if e.Getenv == nil {
		return fallback
	}
	v := strings.TrimSpace(e.Getenv(name))
	if v == "" || !filepath.IsAbs(v) {
		return fallback
	}
	return v
}
