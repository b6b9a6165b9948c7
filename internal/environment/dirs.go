package environment

import (
	"os"
	"path/filepath"
)

// AppName names the per-application directories below the XDG base dirs.
const AppName = "codecheck"

// LanguagesFile is the language registry looked up in the config dirs.
const LanguagesFile = "languages.toml"

// Dirs resolves XDG Base Directory paths for codecheck.
type Dirs struct {
	configHome string
	stateHome  string
	configDirs []string
}

// NewDirs reads the XDG variables, falling back to the XDG Base Directory defaults.
func NewDirs() *Dirs {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
		if homeDir == "" {
			homeDir = os.TempDir()
		}
	}

	d := &Dirs{}

	d.configHome = os.Getenv("XDG_CONFIG_HOME")
	if d.configHome == "" {
		d.configHome = filepath.Join(homeDir, ".config")
	}

	d.stateHome = os.Getenv("XDG_STATE_HOME")
	if d.stateHome == "" {
		d.stateHome = filepath.Join(homeDir, ".local", "state")
	}

	if env := os.Getenv("XDG_CONFIG_DIRS"); env != "" {
		d.configDirs = filepath.SplitList(env)
	} else {
		d.configDirs = []string{"/etc/xdg"}
	}

	return d
}

// ConfigDirs returns the preference-ordered config dirs, user dir first.
func (d *Dirs) ConfigDirs() []string {
	return append([]string{d.configHome}, d.configDirs...)
}

func (d *Dirs) AppConfigDir() string {
	return filepath.Join(d.configHome, AppName)
}

// DebugDir is where debug runs keep their request and response archives.
func (d *Dirs) DebugDir() string {
	return filepath.Join(d.stateHome, AppName, "archives")
}

// LanguagesPath returns the first existing codecheck/languages.toml in the
// config dirs, or the path in the user config dir when none exists.
func (d *Dirs) LanguagesPath() string {
	for _, dir := range d.ConfigDirs() {
		p := filepath.Join(dir, AppName, LanguagesFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(d.AppConfigDir(), LanguagesFile)
}

// EnsureDir creates path with 0755 permissions if it does not exist.
func (d *Dirs) EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
