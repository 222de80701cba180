package output

import "time"

type ConfigPort interface {
	Get(key string) string
	MustGet(key string) string
	GetBool(key string, defaultValue bool) bool
	GetInt(key string, defaultValue int) int

	// GetDuration reads a whole-seconds value (the *_SECONDS keys).
	GetDuration(key string, defaultValue time.Duration) time.Duration
}
