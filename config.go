package sqliteconn

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadOptions reads Options from a YAML file. Keys missing from the file
// keep their defaults. Codec and Logger are never read from the file.
//
//	path: /data/app.db
//	busy_timeout: 10s
//	journal_mode: WAL
//	foreign_keys: true
func LoadOptions(path string) (Options, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"path":         memoryPath,
		"busy_timeout": "5s",
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Options{}, fmt.Errorf("failed to load default options: %w", err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Options{}, fmt.Errorf("failed to load options from %s: %w", path, err)
	}

	var opts Options
	if err := k.Unmarshal("", &opts); err != nil {
		return Options{}, fmt.Errorf("failed to decode options from %s: %w", path, err)
	}
	return opts, nil
}
