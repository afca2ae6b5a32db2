package version

// Version is the current version of the quotes tool.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/argo-quotes/internal/version.Version=1.2.3"
// The value "main" indicates a development build.
var Version = "v0.3.0"

// GetVersion returns the current version of the tool.
func GetVersion() string {
	return Version
}

// UserAgent is sent with every provider request.
func UserAgent() string {
	return "argo-quotes/" + Version
}
