package config

import (
	"context"
	"errors"
	"io/fs"
)

// BaseConfigFile is the packaged file name a plugin may ship to declare
// its default configuration.
const BaseConfigFile = "base-config.yaml"

// FileReader reads a file packaged with a plugin's code. Loaders satisfy
// this interface. Absent files are reported with errors satisfying
// errors.Is(err, fs.ErrNotExist).
type FileReader interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
}

// ResolveBase fetches and parses the plugin's base configuration document.
//
// Absence is a normal outcome: if the plugin packages no base config the
// result is (nil, nil). A base config that exists but does not parse is an
// error; so is any read failure other than absence.
func ResolveBase(ctx context.Context, fr FileReader) (*Document, error) {
	data, err := fr.ReadFile(ctx, BaseConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
