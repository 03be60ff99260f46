package updater

// versionManifest is the version.json served by the primary endpoint.
// platform_downloads is keyed by GOOS/GOARCH.
type versionManifest struct {
	LatestVersion     string            `json:"latest_version"`
	DownloadURL       string            `json:"download_url"`
	UpdateMessage     string            `json:"update_message"`
	ForceUpdate       bool              `json:"force_update"`
	PlatformDownloads map[string]string `json:"platform_downloads"`
}

type githubRelease struct {
	TagName    string `json:"tag_name"`
	Body       string `json:"body"`
	HTMLURL    string `json:"html_url"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// UpdateInfo reports whether a newer FlashSheet release exists. Versions
// carry no leading "v".
type UpdateInfo struct {
	CurrentVersion string
	LatestVersion  string
	UpdateMessage  string
	DownloadURL    string
	IsAvailable    bool
	ForceUpdate    bool
}
