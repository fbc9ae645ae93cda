package catalog

import "sync/atomic"

// Sequencer provides monotonically increasing snapshot versions.
type Sequencer struct{ n atomic.Uint64 }

// Next returns the next version.
func (s *Sequencer) Next() uint64 { return s.n.Add(1) }
