package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/kpauljoseph/flashsheet/pkg/logger"
	"github.com/kpauljoseph/flashsheet/pkg/version"
)

const (
	DefaultVersionCheckURL  = "https://flashsheet.app/version.json"
	DefaultGitHubVersionURL = "https://api.github.com/repos/kpauljoseph/flashsheet/releases/latest"
	userAgent               = "FlashSheet-Updater"
	minCheckInterval        = time.Hour
)

type Checker struct {
	client         *http.Client
	logger         *logger.Logger
	primaryURL     string
	githubURL      string
	currentVersion string
	lastChecked    time.Time
}

type CheckerOption func(*Checker)

func WithEndpoints(primary, github string) CheckerOption {
	return func(c *Checker) {
		c.primaryURL = primary
		c.githubURL = github
	}
}

func WithCurrentVersion(v string) CheckerOption {
	return func(c *Checker) {
		c.currentVersion = v
	}
}

func NewChecker(logger *logger.Logger, opts ...CheckerOption) *Checker {
	c := &Checker{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:         logger,
		primaryURL:     DefaultVersionCheckURL,
		githubURL:      DefaultGitHubVersionURL,
		currentVersion: version.Version,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckForUpdates returns nil info when a check already ran within the last hour.
func (c *Checker) CheckForUpdates(ctx context.Context) (*UpdateInfo, error) {
	if time.Since(c.lastChecked) < minCheckInterval {
		return nil, nil
	}
	c.lastChecked = time.Now()

	c.logger.Debug("Checking for updates...")

	info, err := c.checkPrimaryEndpoint(ctx)
	if err != nil {
		c.logger.Debug("Primary endpoint failed, falling back to GitHub: %v", err)
		return c.checkGitHubAPI(ctx)
	}
	return info, nil
}

func (c *Checker) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return resp, nil
}

func (c *Checker) checkPrimaryEndpoint(ctx context.Context) (*UpdateInfo, error) {
	resp, err := c.get(ctx, c.primaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch version info: %w", err)
	}
	defer resp.Body.Close()

	var versionInfo versionManifest
	if err := json.NewDecoder(resp.Body).Decode(&versionInfo); err != nil {
		return nil, fmt.Errorf("failed to decode version info: %w", err)
	}

	currentVersion := strings.TrimPrefix(c.currentVersion, "v")
	latestVersion := strings.TrimPrefix(versionInfo.LatestVersion, "v")

	platformKey := fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	downloadURL, ok := versionInfo.PlatformDownloads[platformKey]
	if !ok {
		downloadURL = versionInfo.DownloadURL
	}
	if downloadURL == "" {
		return nil, fmt.Errorf("no download available for platform %s", platformKey)
	}

	return &UpdateInfo{
		CurrentVersion: currentVersion,
		LatestVersion:  latestVersion,
		UpdateMessage:  versionInfo.UpdateMessage,
		DownloadURL:    downloadURL,
		IsAvailable:    compareVersions(currentVersion, latestVersion) < 0,
		ForceUpdate:    versionInfo.ForceUpdate,
	}, nil
}

func (c *Checker) checkGitHubAPI(ctx context.Context) (*UpdateInfo, error) {
	resp, err := c.get(ctx, c.githubURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch GitHub release: %w", err)
	}
	defer resp.Body.Close()

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode GitHub release: %w", err)
	}

	currentVersion := strings.TrimPrefix(c.currentVersion, "v")
	latestVersion := strings.TrimPrefix(release.TagName, "v")

	return &UpdateInfo{
		CurrentVersion: currentVersion,
		LatestVersion:  latestVersion,
		UpdateMessage:  release.Body,
		DownloadURL:    release.HTMLURL,
		IsAvailable:    !release.Draft && !release.Prerelease && compareVersions(currentVersion, latestVersion) < 0,
		ForceUpdate:    false,
	}, nil
}

// compareVersions returns:
//
//	-1 if v1 < v2
//	 0 if v1 == v2
//	 1 if v1 > v2
//
// Components compare numerically when both parse as integers.
func compareVersions(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	for i := 0; i < len(parts1) && i < len(parts2); i++ {
		n1, err1 := strconv.Atoi(parts1[i])
		n2, err2 := strconv.Atoi(parts2[i])
		if err1 == nil && err2 == nil {
			if n1 != n2 {
				if n1 < n2 {
					return -1
				}
				return 1
			}
			continue
		}
		if parts1[i] < parts2[i] {
			return -1
		}
		if parts1[i] > parts2[i] {
			return 1
		}
	}

	if len(parts1) < len(parts2) {
		return -1
	}
	if len(parts1) > len(parts2) {
		return 1
	}
	return 0
}
