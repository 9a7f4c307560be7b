// Package timeouts defines shared timeout constants used across the portal.
package timeouts

import "time"

// BackendRequest caps one call from the portal to the SMS REST backend when
// no explicit client timeout is configured.
const BackendRequest = 10 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// SessionSweep is the interval between idle browser-session sweeps.
const SessionSweep = time.Minute
