package cache

import "strings"

const (
	GlobalKeyPrefix = "quizforge"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// LiveVersionKey is the cache key of the Live quiz version for a topic key.
func LiveVersionKey(topicKey string) string {
	return GenerateCacheKey("quiz", "live", topicKey)
}

// LiveEpochKey holds a marker that changes whenever the Live version of a topic key may
// have changed. Cache fills compare it before and after loading.
func LiveEpochKey(topicKey string) string {
	return GenerateCacheKey("quiz", "live_epoch", topicKey)
}

// TopicLockKey is the key guarding promotions under a topic key.
func TopicLockKey(topicKey string) string {
	return GenerateCacheKey("quiz", "lock", topicKey)
}
