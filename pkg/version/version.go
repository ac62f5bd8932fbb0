package version

// Set at build time with -ldflags "-X".
var (
	Version   = "v0.0.0-dev"
	GitCommit = "unknown"
)
