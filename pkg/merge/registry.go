package merge

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tetherhq/tether/pkg/config"
	"github.com/tetherhq/tether/pkg/logging"
)

// Strategy pairs a filename predicate with a merge function. New
// file-type handlers register independently; there is no inheritance
// involved.
type Strategy struct {
	Name string
	// Match tests a path's basename.
	Match func(basename string) bool
	// Merge combines existing content with the template's content.
	Merge func(current, incoming []byte) []byte
}

// Registry dispatches a changed path to its merge strategy. Strategies
// are consulted in registration order, first match wins; unmatched
// paths get the default replace-with-incoming strategy.
type Registry struct {
	strategies []Strategy
	logger     zerolog.Logger
}

// NewRegistry creates a registry with the manifest merge strategy
// pre-registered.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{logger: logging.GetLogger("merge.registry")}
	merger := NewMerger(cfg)
	r.Register(Strategy{
		Name:  "manifest",
		Match: func(basename string) bool { return basename == cfg.Manifest.Filename },
		Merge: merger.Merge,
	})
	return r
}

// Register appends a strategy. Registration order decides precedence.
func (r *Registry) Register(s Strategy) {
	r.strategies = append(r.strategies, s)
}

// Resolve returns the first strategy matching the path's basename, or
// the default replace strategy.
func (r *Registry) Resolve(path string) Strategy {
	base := filepath.Base(path)
	for _, s := range r.strategies {
		if s.Match(base) {
			return s
		}
	}
	return Strategy{
		Name:  "replace",
		Match: func(string) bool { return true },
		Merge: func(_, incoming []byte) []byte { return incoming },
	}
}

// Apply merges incoming content into current content for path. A file
// with no current content takes the incoming content as-is regardless
// of strategy.
func (r *Registry) Apply(path string, current []byte, hasCurrent bool, incoming []byte) []byte {
	if !hasCurrent {
		return incoming
	}
	strategy := r.Resolve(path)
	r.logger.Debug().Str("path", path).Str("strategy", strategy.Name).Msg("Applying merge strategy")
	return strategy.Merge(current, incoming)
}
