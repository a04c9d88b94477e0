// Package binary acquires and runs the gitleaks scanner. Binaries are
// fetched from the official release archive, unpacked into a per
// version/platform cache directory, and reused across runs.
package binary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mholt/archives"

	"github.com/globalbusinessadvisors/secretscout/pkg/errs"
	"github.com/globalbusinessadvisors/secretscout/pkg/fs"
	"github.com/globalbusinessadvisors/secretscout/pkg/github"
	scouthttp "github.com/globalbusinessadvisors/secretscout/pkg/http"
	"github.com/globalbusinessadvisors/secretscout/pkg/logger"
)

const (
	releaseBaseURL = "https://github.com/zricethezav/gitleaks/releases/download"
	releaseAPIURL  = "https://api.github.com"
	releaseRepo    = "/repos/zricethezav/gitleaks/releases/latest"
)

// Platform names the OS/arch pair the way release assets are named
type Platform struct {
	OS   string
	Arch string
}

// DetectPlatform maps the runtime onto a release platform
func DetectPlatform() (Platform, error) {
	return resolvePlatform(runtime.GOOS, runtime.GOARCH)
}

func resolvePlatform(goos string, goarch string) (Platform, error) {
	platform := Platform{}

	switch goos {
	case "linux", "darwin", "windows":
		platform.OS = goos
	default:
		return platform, errs.New(errs.Fatal, errs.UnsupportedPlatformError, "unsupported operating system: %q", goos)
	}

	switch goarch {
	case "amd64":
		platform.Arch = "x64"
	case "arm64":
		platform.Arch = "arm64"
	case "arm":
		platform.Arch = "arm"
	default:
		return platform, errs.New(errs.Fatal, errs.UnsupportedPlatformError, "unsupported architecture: %q", goarch)
	}

	return platform, nil
}

// archiveExt is the release archive format for this platform
func (p Platform) archiveExt() string {
	if p.OS == "windows" {
		return ".zip"
	}
	return ".tar.gz"
}

// BinaryName is the scanner executable name on this platform
func (p Platform) BinaryName() string {
	if p.OS == "windows" {
		return "gitleaks.exe"
	}
	return "gitleaks"
}

// DownloadURL builds the release asset URL for a version and platform
func DownloadURL(baseURL string, version string, platform Platform) string {
	return fmt.Sprintf(
		"%s/v%s/gitleaks_%s_%s_%s%s",
		baseURL, version, version, platform.OS, platform.Arch, platform.archiveExt(),
	)
}

// CacheKey names the cache directory for a version and platform
func CacheKey(version string, platform Platform) string {
	return fmt.Sprintf("gitleaks-%s-%s-%s", version, platform.OS, platform.Arch)
}

// Manager acquires scanner binaries, caching them under cacheDir
type Manager struct {
	cacheDir   string
	baseURL    string
	platform   Platform
	httpClient scouthttp.HTTPClient
	releases   *github.Client
}

// NewManager builds a Manager for the detected platform
func NewManager(cacheDir string) (*Manager, error) {
	platform, err := DetectPlatform()
	if err != nil {
		return nil, err
	}

	return &Manager{
		cacheDir:   filepath.Join(cacheDir, "gitleaks"),
		baseURL:    releaseBaseURL,
		platform:   platform,
		httpClient: scouthttp.NewClient(),
		releases:   github.NewClient(releaseAPIURL, ""),
	}, nil
}

// ResolveVersion turns "latest" into a concrete release version by asking
// the release API. The result is never persisted, so "latest" tracks new
// releases run over run. Pinned versions pass through untouched.
func (m *Manager) ResolveVersion(ctx context.Context, version string) (string, error) {
	if version != "latest" {
		return version, nil
	}

	var release struct {
		TagName string `json:"tag_name"`
	}

	if err := m.releases.Request(ctx, http.MethodGet, releaseRepo, nil, &release); err != nil {
		return "", errs.New(errs.Fatal, errs.BinaryAcquisitionError, "could not resolve latest version: %v", err)
	}

	if len(release.TagName) == 0 {
		return "", errs.New(errs.Fatal, errs.BinaryAcquisitionError, "release API returned no tag name")
	}

	resolved := strings.TrimPrefix(release.TagName, "v")
	logger.Info("resolved latest scanner version: version=%q", resolved)

	return resolved, nil
}

// Acquire returns the path to a runnable scanner binary for the version,
// downloading and caching it when no cached copy exists. A failed
// download is retried once before giving up.
func (m *Manager) Acquire(ctx context.Context, version string) (string, error) {
	version, err := m.ResolveVersion(ctx, version)
	if err != nil {
		return "", err
	}

	binaryPath := filepath.Join(m.cacheDir, CacheKey(version, m.platform), m.platform.BinaryName())
	if fs.FileExists(binaryPath) {
		logger.Info("using cached scanner binary: path=%q", binaryPath)
		return binaryPath, nil
	}

	if err := m.download(ctx, version); err != nil {
		logger.Warning("scanner download failed, retrying once: %v", err)

		if err = m.download(ctx, version); err != nil {
			return "", errs.New(errs.Fatal, errs.BinaryAcquisitionError, "could not acquire scanner binary: %v", err)
		}
	}

	if !fs.FileExists(binaryPath) {
		return "", errs.New(errs.Fatal, errs.BinaryAcquisitionError, "scanner binary missing from archive: path=%q", binaryPath)
	}

	return binaryPath, nil
}

// download fetches the release archive and publishes its contents into
// the cache. Extraction happens in a temp dir next to the final location
// so a crash mid-extract never leaves a half-populated cache entry.
func (m *Manager) download(ctx context.Context, version string) error {
	url := DownloadURL(m.baseURL, version, m.platform)
	logger.Info("downloading scanner binary: url=%q", url)

	if err := os.MkdirAll(m.cacheDir, 0o700); err != nil {
		return fmt.Errorf("could not create cache dir: %v", err)
	}

	archivePath, err := m.fetchArchive(ctx, url, version)
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(archivePath)
	}()

	stagingDir, err := os.MkdirTemp(m.cacheDir, ".extract-")
	if err != nil {
		return fmt.Errorf("could not create staging dir: %v", err)
	}
	defer func() {
		_ = os.RemoveAll(stagingDir)
	}()

	if err := extractArchive(ctx, archivePath, stagingDir); err != nil {
		return err
	}

	binaryPath := filepath.Join(stagingDir, m.platform.BinaryName())
	if m.platform.OS != "windows" {
		if err := os.Chmod(binaryPath, 0o755); err != nil {
			return fmt.Errorf("could not mark scanner binary executable: %v", err)
		}
	}

	finalDir := filepath.Join(m.cacheDir, CacheKey(version, m.platform))
	if err := os.Rename(stagingDir, finalDir); err != nil {
		// A concurrent run may have published first, which is fine as
		// long as the binary is there
		if fs.FileExists(filepath.Join(finalDir, m.platform.BinaryName())) {
			return nil
		}
		return fmt.Errorf("could not publish scanner binary: %v", err)
	}

	return nil
}

// fetchArchive streams the release asset to a temp file and returns its
// path. Callers own cleanup of the returned file.
func (m *Manager) fetchArchive(ctx context.Context, url string, version string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download request failed: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: status=%d url=%q", resp.StatusCode, url)
	}

	archiveFile, err := os.CreateTemp(m.cacheDir, ".download-"+version+"-*")
	if err != nil {
		return "", fmt.Errorf("could not create download file: %v", err)
	}

	if _, err := io.Copy(archiveFile, resp.Body); err != nil {
		_ = archiveFile.Close()
		_ = os.Remove(archiveFile.Name())
		return "", fmt.Errorf("could not write download file: %v", err)
	}

	if err := archiveFile.Close(); err != nil {
		_ = os.Remove(archiveFile.Name())
		return "", err
	}

	return archiveFile.Name(), nil
}

// extractArchive unpacks every member of the archive under destDir. Member
// names are joined through the traversal guard so a crafted archive can
// never write outside destDir.
func extractArchive(ctx context.Context, archivePath string, destDir string) error {
	archiveFile, err := os.Open(filepath.Clean(archivePath))
	if err != nil {
		return fmt.Errorf("could not open archive: %v", err)
	}
	defer func() {
		_ = archiveFile.Close()
	}()

	format, stream, err := archives.Identify(ctx, archivePath, archiveFile)
	if err != nil {
		return fmt.Errorf("could not identify archive format: %v", err)
	}

	extractor, ok := format.(archives.Extractor)
	if !ok {
		return fmt.Errorf("unsupported archive format: path=%q", archivePath)
	}

	return extractor.Extract(ctx, stream, func(_ context.Context, member archives.FileInfo) error {
		path, err := fs.CleanJoin(destDir, member.NameInArchive)
		if err != nil {
			return fmt.Errorf("refusing archive member: %v", err)
		}

		if member.IsDir() {
			return os.MkdirAll(path, 0o700)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return err
		}

		memberReader, err := member.Open()
		if err != nil {
			return fmt.Errorf("could not open archive member: name=%q error=%q", member.NameInArchive, err)
		}
		defer func() {
			_ = memberReader.Close()
		}()

		outFile, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			return err
		}

		if _, err := io.Copy(outFile, memberReader); err != nil {
			_ = outFile.Close()
			return err
		}

		return outFile.Close()
	})
}
