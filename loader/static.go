package loader

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/plugbot/plugbot/plugin"
)

// StaticLoader serves a plugin compiled into the host binary: a factory
// registered at bootstrap plus an optional set of packaged files (such as
// a base configuration document).
type StaticLoader struct {
	meta    Meta
	factory plugin.Factory
	files   map[string][]byte
}

// NewStatic creates a loader for an in-process plugin. files may be nil.
func NewStatic(meta Meta, factory plugin.Factory, files map[string][]byte) *StaticLoader {
	return &StaticLoader{meta: meta, factory: factory, files: files}
}

// Meta returns the loader's identity.
func (l *StaticLoader) Meta() Meta {
	return l.meta
}

// Load returns the registered factory.
func (l *StaticLoader) Load(ctx context.Context) (plugin.Factory, error) {
	return l.factory, nil
}

// ReadFile returns a packaged file's contents.
func (l *StaticLoader) ReadFile(ctx context.Context, name string) ([]byte, error) {
	data, ok := l.files[name]
	if !ok {
		return nil, fmt.Errorf("loader: %s/%s: %w", l.meta.ID, name, fs.ErrNotExist)
	}
	return data, nil
}
