package version

// Version is the released version; release builds override it with
// -ldflags "-X xref/internal/shared/version.Version=...".
var Version = "1.0.0"
