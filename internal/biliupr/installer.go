package biliupr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
)

const (
	// DefaultRepo is the repository publishing biliupR releases.
	DefaultRepo = "biliup/biliup"
	// DefaultBaseURL is the GitHub API root.
	DefaultBaseURL = "https://api.github.com"
	// DefaultTimeout bounds every network operation.
	DefaultTimeout = 20 * time.Second
	// UserAgent is sent with every request.
	UserAgent = "youtube2bilibili-installer"
)

type (
	// Installer keeps one biliupR binary in installDir fresh.
	Installer struct {
		installDir   string
		repo         string // owner/name
		baseURL      string
		metadataFile string
		proxy        string
		token        string // Optional GitHub token for API requests
		userAgent    string
		timeout      time.Duration
		platform     Platform
		logger       *log.Logger
		progress     io.Writer // Download progress destination; nil disables the bar
		now          func() time.Time
		client       *resty.Client
	}

	// Option configures an Installer during construction.
	Option func(*Installer)
)

// WithRepo sets the repository as "owner/name".
func WithRepo(repo string) Option {
	return func(i *Installer) {
		i.repo = strings.Trim(repo, "/")
	}
}

// WithBaseURL overrides the releases API root, for tests or GitHub Enterprise.
func WithBaseURL(base string) Option {
	return func(i *Installer) {
		i.baseURL = strings.TrimRight(base, "/")
	}
}

// WithMetadataFile sets the sidecar filename inside the install directory.
func WithMetadataFile(name string) Option {
	return func(i *Installer) {
		i.metadataFile = name
	}
}

// WithProxy routes every request (release query and download) through proxyURL.
// An empty or blank value keeps the environment's proxy settings.
func WithProxy(proxyURL string) Option {
	return func(i *Installer) {
		i.proxy = strings.TrimSpace(proxyURL)
	}
}

// WithTimeout bounds the release query, connection setup and each download
// read. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(i *Installer) {
		if d > 0 {
			i.timeout = d
		}
	}
}

// WithToken sets a GitHub token sent on release queries only.
func WithToken(token string) Option {
	return func(i *Installer) {
		i.token = token
	}
}

// WithUserAgent overrides UserAgent.
func WithUserAgent(ua string) Option {
	return func(i *Installer) {
		i.userAgent = ua
	}
}

// WithPlatform installs for p instead of the running platform.
func WithPlatform(p Platform) Option {
	return func(i *Installer) {
		i.platform = p
	}
}

// WithLogger sets the logger for progress events.
func WithLogger(l *log.Logger) Option {
	return func(i *Installer) {
		i.logger = l
	}
}

// WithProgress renders a download progress bar to w.
func WithProgress(w io.Writer) Option {
	return func(i *Installer) {
		i.progress = w
	}
}

// New creates an Installer for installDir.
func New(installDir string, opts ...Option) *Installer {
	i := &Installer{
		installDir:   installDir,
		repo:         DefaultRepo,
		baseURL:      DefaultBaseURL,
		metadataFile: DefaultMetadataFile,
		userAgent:    UserAgent,
		timeout:      DefaultTimeout,
		platform:     Detect(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = log.New(io.Discard)
	}
	i.client = newRestyClient(i)
	return i
}

// newRestyClient builds the HTTP client shared by release queries and
// downloads. Dial, TLS and response-header phases are bounded by the
// installer timeout; body reads are bounded per chunk in download, so large
// archives are not cut off by a whole-request deadline.
func newRestyClient(i *Installer) *resty.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   i.timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   i.timeout,
		ResponseHeaderTimeout: i.timeout,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}

	c := resty.New().
		SetTransport(transport).
		SetHeader("User-Agent", i.userAgent).
		SetLogger(restyLogger{i.logger})
	if i.proxy != "" {
		c.SetProxy(i.proxy)
	}
	return c
}

// InstallDir returns the directory holding the binary and its sidecar.
func (i *Installer) InstallDir() string {
	return i.installDir
}

// Platform returns the target platform.
func (i *Installer) Platform() Platform {
	return i.platform
}

// BinaryPath returns where the binary is installed for the target platform.
func (i *Installer) BinaryPath() string {
	return filepath.Join(i.installDir, i.platform.BinaryName())
}

// Metadata reads the install sidecar; ok is false when it is absent or corrupt.
func (i *Installer) Metadata() (Metadata, bool) {
	return ReadMetadata(i.installDir, i.metadataFile)
}

// EnsureInstalled makes sure a binary is present and, depending on opts,
// current. The decision is evaluated in order:
//
//  1. A binary exists and neither Force nor UpdateIfOutdated is set: report it
//     without any network call.
//  2. Otherwise the latest release is queried. A binary exists, its recorded
//     tag equals the latest tag and Force is not set: report it.
//  3. Otherwise the matching asset is downloaded and installed.
func (i *Installer) EnsureInstalled(ctx context.Context, opts EnsureOptions) (*State, error) {
	meta, _ := i.Metadata()
	present := fileExists(i.BinaryPath())

	if present && !opts.Force && !opts.UpdateIfOutdated {
		i.logger.Debug("binary present, skipping update check", "binary", i.BinaryPath(), "tag", meta.TagName)
		return i.currentState(meta), nil
	}

	release, err := i.LatestRelease(ctx)
	if err != nil {
		return nil, err
	}

	if present && meta.TagName == release.TagName && !opts.Force {
		i.logger.Debug("binary is current", "binary", i.BinaryPath(), "tag", meta.TagName)
		return i.currentState(meta), nil
	}

	asset, err := SelectAsset(release.Assets, i.platform)
	if err != nil {
		return nil, err
	}

	return i.InstallRelease(ctx, release, asset)
}

// CheckForUpdate compares the recorded tag with the latest release without
// installing anything. HasUpdate is true when the latest tag is non-empty and
// differs from the recorded one.
func (i *Installer) CheckForUpdate(ctx context.Context) (*UpdateCheck, error) {
	meta, _ := i.Metadata()

	release, err := i.LatestRelease(ctx)
	if err != nil {
		return nil, err
	}

	return &UpdateCheck{
		CurrentTag: meta.TagName,
		LatestTag:  release.TagName,
		HasUpdate:  release.TagName != "" && meta.TagName != release.TagName,
		Release:    release,
	}, nil
}

// InstallRelease downloads asset, extracts it inside a scratch directory under
// the install directory, replaces the installed binary and rewrites the
// sidecar. The scratch directory is removed on every path out. The sidecar is
// written only after the binary is in place.
func (i *Installer) InstallRelease(ctx context.Context, release *Release, asset Asset) (*State, error) {
	if release == nil {
		return nil, errors.New("release must not be nil")
	}
	if asset.Name == "" || asset.BrowserDownloadURL == "" {
		return nil, installErrorf("invalid release asset payload")
	}

	if err := os.MkdirAll(i.installDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating install directory: %w", err)
	}

	destination := i.BinaryPath()
	if err := i.fetchAndCommit(ctx, asset, destination); err != nil {
		return nil, err
	}

	meta := Metadata{
		Repo:           release.HTMLURL,
		TagName:        release.TagName,
		AssetName:      asset.Name,
		DownloadURL:    asset.BrowserDownloadURL,
		InstalledAtUTC: formatTimestamp(i.now()),
		Binary:         destination,
	}
	if err := WriteMetadata(i.installDir, i.metadataFile, meta); err != nil {
		return nil, err
	}

	i.logger.Info("installed biliupR", "tag", meta.TagName, "binary", destination)

	return &State{
		BinaryPath:  destination,
		TagName:     meta.TagName,
		AssetName:   asset.Name,
		DownloadURL: asset.BrowserDownloadURL,
		Installed:   true,
	}, nil
}

func (i *Installer) fetchAndCommit(ctx context.Context, asset Asset, destination string) error {
	scratch, err := os.MkdirTemp(i.installDir, "biliupr_")
	if err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	archivePath := filepath.Join(scratch, filepath.Base(filepath.FromSlash(asset.Name)))
	extractDir := filepath.Join(scratch, "extract")
	if err := os.Mkdir(extractDir, 0o755); err != nil {
		return fmt.Errorf("creating extract directory: %w", err)
	}

	i.logger.Info("downloading biliupR", "asset", asset.Name)
	n, err := i.download(ctx, asset.BrowserDownloadURL, archivePath)
	if err != nil {
		return err
	}
	i.logger.Debug("download finished", "asset", asset.Name, "bytes", n)

	if err := extractArchive(archivePath, extractDir); err != nil {
		return err
	}

	extracted, err := locateBinary(extractDir, i.platform.BinaryName(), i.platform.otherBinaryName())
	if err != nil {
		return err
	}
	i.logger.Debug("located binary", "path", extracted)

	return commitBinary(extracted, destination, !i.platform.IsWindows())
}

func (i *Installer) currentState(meta Metadata) *State {
	return &State{
		BinaryPath:  i.BinaryPath(),
		TagName:     meta.TagName,
		AssetName:   meta.AssetName,
		DownloadURL: meta.DownloadURL,
		Installed:   false,
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// restyLogger forwards resty's internal messages to the installer logger.
type restyLogger struct {
	l *log.Logger
}

func (r restyLogger) Errorf(format string, v ...any) { r.l.Errorf(format, v...) }
func (r restyLogger) Warnf(format string, v ...any)  { r.l.Warnf(format, v...) }
func (r restyLogger) Debugf(format string, v ...any) { r.l.Debugf(format, v...) }
