package cli

import (
	"os"

	"github.com/BurntSushi/toml"

	perrors "github.com/physlearn/physlearn/pkg/errors"
	"github.com/physlearn/physlearn/pkg/learn"
)

// loadOptionsFile decodes a TOML config file into run options. Fields
// absent from the file keep their zero value, so defaults still apply when
// the options are validated.
func loadOptionsFile(path string) (learn.Options, error) {
	var opts learn.Options
	meta, err := toml.DecodeFile(path, &opts)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return opts, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return opts, perrors.New(perrors.ErrCodeInvalidConfig, "unknown config key %q in %s", undecoded[0].String(), path)
	}
	return opts, nil
}
