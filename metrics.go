package lukchat

// Metrics receives node activity notifications. Implementations must be
// safe for concurrent use.
type Metrics interface {
	// BlockAccepted is called after a block is appended, height is the new
	// chain length.
	BlockAccepted(height int)
	// BlockRejected is called with the error kind ("validation",
	// "persistence" or "other") of a failed append.
	BlockRejected(kind string)
	// Overlap is called with every computed chain overlap score.
	Overlap(score float64)
	// EventsPending is called with the loose events count after it changes.
	EventsPending(n int)
}

type nopMetrics struct{}

func (nopMetrics) BlockAccepted(int) {}
func (nopMetrics) BlockRejected(string) {}
func (nopMetrics) Overlap(float64) {}
func (nopMetrics) EventsPending(int) {}
