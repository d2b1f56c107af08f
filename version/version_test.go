package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()
	assert.Contains(t, info.Version, LVSemVer)
	assert.Equal(t, VoteProtocol, info.VoteProtocol)
	assert.EqualValues(t, 2, info.VoteProtocol.Uint64())
}
