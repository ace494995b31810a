package uuidutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Well-known test vectors: v3 and v5 are the DNS-namespace hashes of
// "python.org", v1 carries a fixed timestamp and node.
const (
	uuidV1 = "c232ab00-9414-11ec-b3c8-9f68deced846"
	uuidV3 = "6fa459ea-ee8a-3ca4-894e-db77e160355e"
	uuidV4 = "c9bf9e57-1685-4c89-bafb-ff5af830be8a"
	uuidV5 = "886313e1-3b8a-5372-9b90-0c9aee199e5d"
)

func TestVersion(t *testing.T) {
	t.Run("detects each supported version", func(t *testing.T) {
		for expected, id := range map[int]string{
			1: uuidV1,
			3: uuidV3,
			4: uuidV4,
			5: uuidV5,
		} {
			version, ok := Version(id)
			assert.True(t, ok, id)
			assert.Equal(t, expected, version, id)
		}
	})

	t.Run("non-uuid string", func(t *testing.T) {
		version, ok := Version("c9bf9e58")
		assert.False(t, ok)
		assert.Equal(t, 0, version)
	})

	t.Run("rejects non-canonical forms", func(t *testing.T) {
		for _, id := range []string{
			"C9BF9E57-1685-4C89-BAFB-FF5AF830BE8A",
			"{c9bf9e57-1685-4c89-bafb-ff5af830be8a}",
			"urn:uuid:c9bf9e57-1685-4c89-bafb-ff5af830be8a",
			"c9bf9e5716854c89bafbff5af830be8a",
		} {
			_, ok := Version(id)
			assert.False(t, ok, id)
		}
	})
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(uuidV4))
	assert.False(t, IsValid("c9bf9e58"))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("not-a-uuid-at-all"))
}

func TestIsValidVersion(t *testing.T) {
	t.Run("matching version", func(t *testing.T) {
		assert.True(t, IsValidVersion(uuidV4, 4))
		assert.True(t, IsValidVersion(uuidV5, 5))
	})

	t.Run("version mismatch", func(t *testing.T) {
		assert.False(t, IsValidVersion(uuidV4, 1))
		assert.False(t, IsValidVersion(uuidV1, 4))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.False(t, IsValidVersion("", 4))
	})
}
