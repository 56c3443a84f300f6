package version

import (
	"runtime"
	"time"
)

// Populated through -ldflags at release time.
var (
	Version   = "dev"                           // ex: v0.2.0
	Commit    = "none"                          // ex: 1f3c9ab
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2026-10-15T09:12:00Z
	GoVersion = runtime.Version()
)
