// Package instance names the running publisher replica so concurrent claims
// can be told apart in logs.
package instance

import (
	"fmt"
	"os"
	"strings"
)

var hostname = os.Hostname

// GetID prefers WORKER_ID, then the host name (the pod name on Kubernetes),
// then a pid-based fallback.
func GetID() string {
	if id := strings.TrimSpace(os.Getenv("WORKER_ID")); id != "" {
		return id
	}
	if host, err := hostname(); err == nil && strings.TrimSpace(host) != "" {
		return strings.TrimSpace(host)
	}
	return fmt.Sprintf("publisher-%d", os.Getpid())
}
