package emit

import (
	"gopkg.in/yaml.v3"

	"web2local/internal/reconstruct"
)

// LockFile is the `web2local.lock.yaml` companion written alongside the
// bundler configuration and the Starlark-shaped workspace manifest: a
// human-diffable record of which package version each dependency resolved
// to and at what confidence, so a re-run can short-circuit straight to the
// same match instead of re-searching the registry.
type LockFile struct {
	Version  int               `yaml:"version"`
	Packages []LockedPackage   `yaml:"packages"`
	Aliases  []reconstruct.Alias `yaml:"aliases,omitempty"`
}

// LockedPackage is one resolved dependency entry.
type LockedPackage struct {
	Name       string  `yaml:"name"`
	Version    string  `yaml:"version"`
	Similarity float64 `yaml:"similarity"`
	Strategy   string  `yaml:"strategy"`
}

const lockFileVersion = 1

// BuildLockFile assembles a LockFile from resolved package matches and the
// inferred alias table.
func BuildLockFile(packages []LockedPackage, aliases []reconstruct.Alias) LockFile {
	return LockFile{Version: lockFileVersion, Packages: packages, Aliases: aliases}
}

// MarshalLockFile renders a LockFile as YAML.
func MarshalLockFile(lf LockFile) ([]byte, error) {
	return yaml.Marshal(lf)
}

// UnmarshalLockFile parses a previously written lock file.
func UnmarshalLockFile(data []byte) (LockFile, error) {
	var lf LockFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return LockFile{}, err
	}
	return lf, nil
}
