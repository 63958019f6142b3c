package utils

import (
	"strings"
)

// MinorVersion reduces a full Kubernetes version such as "1.32.5" to its
// minor series "1.32", the granularity pkgs.k8s.io repositories key on.
func MinorVersion(version string) string {
	version = strings.TrimPrefix(version, "v")
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}
