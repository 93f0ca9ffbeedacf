package modelplane

// Version is the release version. Overridden at build time with
// -ldflags "-X github.com/modelplane/modelplane.Version=v1.2.3".
var Version = "dev"

// GitHash identifies the commit the binary was built from, injected the
// same way as Version.
var GitHash = "<unknown>"
