package pubsub

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// WildcardPath addresses the whole-user scope instead of one mailbox
const WildcardPath = "*"

// RoutingKey derives the deterministic routing key for a (user, path)
// pair. The digest is identical on every process, so a signal published
// by one process matches registrations held by any other.
func RoutingKey(userID uint, path string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s", userID, path)))
	return hex.EncodeToString(sum[:])
}
