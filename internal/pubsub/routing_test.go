package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutingKey_Deterministic(t *testing.T) {
	assert.Equal(t, RoutingKey(1, "INBOX"), RoutingKey(1, "INBOX"))
}

func TestRoutingKey_DistinguishesUsers(t *testing.T) {
	assert.NotEqual(t, RoutingKey(1, "INBOX"), RoutingKey(2, "INBOX"))
}

func TestRoutingKey_DistinguishesPaths(t *testing.T) {
	assert.NotEqual(t, RoutingKey(1, "INBOX"), RoutingKey(1, "Archive"))
	assert.NotEqual(t, RoutingKey(1, "INBOX"), RoutingKey(1, WildcardPath))
}

func TestRoutingKey_NoDelimiterCollision(t *testing.T) {
	// "12"+":3" must not collide with "1"+":23"
	assert.NotEqual(t, RoutingKey(12, "3"), RoutingKey(1, "23"))
}

func TestRoutingKey_IsHexDigest(t *testing.T) {
	key := RoutingKey(1, "INBOX")
	assert.Len(t, key, 64)
	for _, c := range key {
		assert.Contains(t, "0123456789abcdef", string(c))
	}
}
