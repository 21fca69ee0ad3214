package version

// Version is the build version, overridden with
// -ldflags "-X github.com/livp123/firesense/internal/version.Version=...".
// Version 为构建版本，可通过 ldflags 覆盖。
var Version = "dev"
