// Package lifecycle holds shared constants for application startup and shutdown.
package lifecycle

import "time"

// DefaultTimeout bounds how long a component may take to start or stop
// during fx lifecycle transitions.
const DefaultTimeout = 30 * time.Second
