package connect

import "strings"

// SubscriptionCallback receives decoded values for one subscribed device
// resource.
type SubscriptionCallback func(value interface{})

// subscriptionKey identifies a resource subscription. Device id and path
// are kept apart so that no concatenation of the two can collide with
// another device's path.
type subscriptionKey struct {
	deviceID string
	path     string
}

const subscriptionRegistryPrefix = "subscription:"

func (k subscriptionKey) registryKey() string {
	return subscriptionRegistryPrefix + k.deviceID + "|" + k.path
}

// parseSubscriptionRegistryKey is the inverse of registryKey. Paths always
// start with "/", so the first "|" terminates the device id.
func parseSubscriptionRegistryKey(key string) (subscriptionKey, bool) {
	if !strings.HasPrefix(key, subscriptionRegistryPrefix) {
		return subscriptionKey{}, false
	}
	key = strings.TrimPrefix(key, subscriptionRegistryPrefix)
	i := strings.Index(key, "|")
	if i < 0 {
		return subscriptionKey{}, false
	}
	return subscriptionKey{deviceID: key[:i], path: key[i+1:]}, true
}
