package storage

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/nspcc-dev/lukchat"
	"github.com/stretchr/testify/require"
)

type testPayload uint32

func (p testPayload) MarshalBinary() ([]byte, error) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(p))

	return b, nil
}

func decodeTestPayload(data []byte) (testPayload, error) {
	if len(data) != 4 {
		return 0, errors.New("length must equal 4 bytes")
	}

	return testPayload(binary.LittleEndian.Uint32(data)), nil
}

// testChain returns genesis with n blocks on top of it.
func testChain(t *testing.T, n int) []lukchat.Block[testPayload] {
	g, err := lukchat.NewGenesis(testPayload(0))
	require.NoError(t, err)

	res := []lukchat.Block[testPayload]{g}
	for i := 1; i <= n; i++ {
		b, err := lukchat.NewBlock(res[i-1].Hash(), testPayload(i))
		require.NoError(t, err)
		res = append(res, b)
	}

	return res
}
