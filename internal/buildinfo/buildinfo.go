package buildinfo

// These variables are set at build time using -ldflags
var (
	// Version is the release the client was built from
	Version = "dev"
	// BuildID is a unique identifier for this build
	BuildID = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// UserAgent is sent on every request to the vault services.
func UserAgent() string {
	return "file-vault-client/" + Version + " (" + BuildID + ")"
}
