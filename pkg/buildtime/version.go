package buildtime

// revision is the commit this binary has been built from, set at link time:
//
//	go build -ldflags "-X github.com/gnps/groupselector/pkg/buildtime.revision=$(git rev-parse HEAD)"
var revision = "unknown"

func GIT_REVISION() string {
	return revision
}

func VersionString(version string) string {
	return version + " (commit: " + revision + ")"
}
