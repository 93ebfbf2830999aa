// Package config holds the small set of values a caller can tune when
// wiring up a pagefile.Manager, in the teacher's style of passing a
// handful of constructor arguments (NewFileManager(path, blockSize))
// rather than parsing a config file.
package config

// Options configures a pagefile.Manager. PageSize is not settable here:
// spec.md §3.1 fixes it at 4096 as part of the on-disk format, not a
// runtime tunable.
type Options struct {
	BaseDir string
}

// Option mutates an Options value during construction.
type Option func(*Options)

// WithBaseDir overrides the directory paged files are created under.
func WithBaseDir(dir string) Option {
	return func(o *Options) {
		o.BaseDir = dir
	}
}

// New builds an Options value from the given overrides, defaulting
// BaseDir to "." when none is supplied.
func New(opts ...Option) Options {
	o := Options{BaseDir: "."}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
