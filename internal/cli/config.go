package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// configFileName is the config file looked up under the XDG config directory.
const configFileName = "config.toml"

// Config holds persistent defaults read from the TOML config file.
// Every field is optional; flags given on the command line win over
// config file values.
type Config struct {
	// Width is the standard width images are scaled to before packing.
	Width int `toml:"width"`

	// Border is the white padding in pixels added around each image.
	// A pointer distinguishes "not configured" from an explicit zero.
	Border *int `toml:"border"`

	// Order is the placement order: "area" or "width".
	Order string `toml:"order"`

	// Format is the default output format: "png" or "jpeg".
	Format string `toml:"format"`

	// Filter restricts inputs to files with this extension.
	Filter string `toml:"filter"`

	// OnDecodeError selects the decode failure policy: "skip" or "abort".
	OnDecodeError string `toml:"on_decode_error"`
}

// loadConfig reads the config file at path. When path is empty the default
// XDG location is tried; a missing file there is not an error, an explicitly
// given path must exist.
func loadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = configPath(); err != nil {
			return Config{}, nil
		}
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
