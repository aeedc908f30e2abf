// Package feed defines the boundary crossing between external collaborators
// (broker wire clients, universe construction — both out of scope per
// spec.md §1) and the core pipeline: a Source produces the tagged
// model.FeedEvent variant (Design Notes §9), and the core depends only on
// that variant, never on a concrete broker SDK type.
package feed

import "github.com/signalcore/signalcore/internal/model"

// Source produces a stream of feed events until the source is exhausted,
// then closes the channel returned by Events().
type Source interface {
	Events() <-chan model.FeedEvent
}
