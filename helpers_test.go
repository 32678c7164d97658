package lukchat

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"github.com/nspcc-dev/lukchat/crypto"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"
)

type testPayload uint64

func (p testPayload) MarshalBinary() ([]byte, error) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(p))

	return b, nil
}

func decodeTestPayload(data []byte) (testPayload, error) {
	if len(data) != 8 {
		return 0, errors.New("length must equal 8 bytes")
	}

	return testPayload(binary.LittleEndian.Uint64(data)), nil
}

// badPayload can't be marshaled.
type badPayload struct{}

func (badPayload) MarshalBinary() ([]byte, error) { return nil, errors.New("can't marshal") }

// ptrPayload is a pointer payload, its zero value is nil.
type ptrPayload struct{ v uint64 }

func (p *ptrPayload) MarshalBinary() ([]byte, error) {
	return testPayload(p.v).MarshalBinary()
}

// testJob is an in-memory SyncJob which can be configured to fail.
type testJob struct {
	mtx     sync.Mutex
	err     error
	written []util.Uint256
}

func (j *testJob) WriteBlock(ctx context.Context, b Block[testPayload]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mtx.Lock()
	defer j.mtx.Unlock()

	if j.err != nil {
		return j.err
	}
	j.written = append(j.written, b.Hash())

	return nil
}

func (j *testJob) setError(err error) {
	j.mtx.Lock()
	j.err = err
	j.mtx.Unlock()
}

func (j *testJob) count() int {
	j.mtx.Lock()
	defer j.mtx.Unlock()

	return len(j.written)
}

func newTestIdentity(t testing.TB) Identity {
	priv, pub := crypto.Generate(rand.Reader)
	id, err := NewIdentity(priv, pub)
	require.NoError(t, err)

	return id
}

func mustGenesis(t testing.TB, p testPayload) Block[testPayload] {
	b, err := NewGenesis(p)
	require.NoError(t, err)

	return b
}

func mustBlock(t testing.TB, parent Block[testPayload], p testPayload) Block[testPayload] {
	b, err := NewBlock(parent.Hash(), p)
	require.NoError(t, err)

	return b
}

// testMetrics records metrics calls.
type testMetrics struct {
	mtx      sync.Mutex
	heights  []int
	rejected map[string]int
	overlaps []float64
	pending  int
}

func newTestMetrics() *testMetrics {
	return &testMetrics{rejected: make(map[string]int)}
}

func (m *testMetrics) BlockAccepted(height int) {
	m.mtx.Lock()
	m.heights = append(m.heights, height)
	m.mtx.Unlock()
}

func (m *testMetrics) BlockRejected(kind string) {
	m.mtx.Lock()
	m.rejected[kind]++
	m.mtx.Unlock()
}

func (m *testMetrics) Overlap(score float64) {
	m.mtx.Lock()
	m.overlaps = append(m.overlaps, score)
	m.mtx.Unlock()
}

func (m *testMetrics) EventsPending(n int) {
	m.mtx.Lock()
	m.pending = n
	m.mtx.Unlock()
}
