package internal

// Application metadata constants.
//
// To update the version change only AppVersion; every other version string
// is derived from it.
const (
	// AppName is the official name of the application
	AppName = "filefinder"

	// AppVersion follows semantic versioning (major.minor.patch)
	AppVersion = "0.4.2"

	// AppDesc is the tagline used in the UI header and CLI help
	AppDesc = "Find files across every mounted disk"
)

// GetVersionString returns just the version number for programmatic use.
// Example: "0.4.2"
func GetVersionString() string {
	return AppVersion
}

// GetFullVersionString returns the application name with version for display.
// Example: "filefinder v0.4.2"
func GetFullVersionString() string {
	return AppName + " v" + AppVersion
}

// GetSubtitle returns a compact version string for the UI header.
func GetSubtitle() string {
	return "v" + AppVersion + " " + CurrentSymbols.Bullet + " " + AppDesc
}
