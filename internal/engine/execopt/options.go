package execopt

import "github.com/kode4food/tartan/pkg/api"

type (
	// Options contains optional parameters for executing a project's flow
	Options struct {
		ResumeFrom        api.NodeID
		MaxRetries        int
		PreserveArtifacts bool
	}

	// Applier mutates Options during Execute setup
	Applier func(*Options)
)

// DefaultOptions returns an Options instance with defaults applied. A zero
// MaxRetries defers to the engine's configured retry limit
func DefaultOptions(apps ...Applier) *Options {
	opt := &Options{
		PreserveArtifacts: true,
	}
	ApplyOptions(opt, apps...)
	return opt
}

// ApplyOptions applies option appliers in order
func ApplyOptions(opt *Options, apps ...Applier) {
	for _, app := range apps {
		app(opt)
	}
}

// WithResumeFrom starts execution at the given node, treating every node
// with a path to it as already completed
func WithResumeFrom(id api.NodeID) Applier {
	return func(opt *Options) {
		opt.ResumeFrom = id
	}
}

// WithPreserveArtifacts controls whether nodes that already produced
// artifacts are skipped
func WithPreserveArtifacts(preserve bool) Applier {
	return func(opt *Options) {
		opt.PreserveArtifacts = preserve
	}
}

// WithMaxRetries sets how many times each node's execution unit may be
// attempted. Values below one allow a single attempt
func WithMaxRetries(n int) Applier {
	return func(opt *Options) {
		opt.MaxRetries = max(n, 1)
	}
}
