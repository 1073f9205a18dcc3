// Package browser discovers an installed Chromium build in the Playwright
// browser cache.
package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/use-agent/surfer/models"
)

// CacheEnv overrides the browser cache root.
const CacheEnv = "PLAYWRIGHT_BROWSERS_PATH"

// InstallHint is printed when no browser can be found.
const InstallHint = "python3 -m playwright install chromium"

// chromiumPrefix marks versioned Chromium directories, e.g. "chromium-1148".
const chromiumPrefix = "chromium-"

// executable is one entry of the probe table.
type executable struct {
	platform string
	rel      []string
}

// executables is probed in order under the selected chromium directory.
var executables = []executable{
	{"linux", []string{"chrome-linux", "chrome"}},
	{"linux", []string{"chrome-linux64", "chrome"}},
	{"darwin", []string{"chrome-mac", "Chromium.app", "Contents", "MacOS", "Chromium"}},
	{"darwin", []string{"chrome-mac-arm64", "Chromium.app", "Contents", "MacOS", "Chromium"}},
	{"windows", []string{"chrome-win", "chrome.exe"}},
	{"windows", []string{"chrome-win64", "chrome.exe"}},
}

// defaultCacheRoots maps GOOS to the cache location relative to a base
// directory, and whether that base is LOCALAPPDATA instead of home.
var defaultCacheRoots = map[string]struct {
	rel          []string
	localAppData bool
}{
	"linux":   {rel: []string{".cache", "ms-playwright"}},
	"darwin":  {rel: []string{"Library", "Caches", "ms-playwright"}},
	"windows": {rel: []string{"ms-playwright"}, localAppData: true},
}

// Binary is a discovered Chromium executable.
type Binary struct {
	Path     string
	Platform string
}

// Locator finds a Chromium binary. The zero value uses the real
// environment; fields exist so tests can substitute them.
type Locator struct {
	// CacheRoot, when set, wins over the environment and the default.
	CacheRoot string

	// Override, when it names an existing file, is returned as-is.
	Override string

	Getenv  func(string) string
	HomeDir func() (string, error)
	GOOS    string
}

// Root returns the cache directory the locator will search.
func (l *Locator) Root() (string, error) {
	if l.CacheRoot != "" {
		return l.CacheRoot, nil
	}
	if v := l.getenv(CacheEnv); v != "" {
		return v, nil
	}

	goos := l.goos()
	def, ok := defaultCacheRoots[goos]
	if !ok {
		def = defaultCacheRoots["linux"]
	}

	var base string
	if def.localAppData {
		base = l.getenv("LOCALAPPDATA")
	}
	if base == "" {
		home, err := l.homeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		base = home
	}
	return filepath.Join(append([]string{base}, def.rel...)...), nil
}

// Locate returns the newest installed Chromium binary, or a
// BROWSER_NOT_FOUND ScrapeError carrying the install hint.
func (l *Locator) Locate() (*Binary, error) {
	if l.Override != "" {
		if isFile(l.Override) {
			return &Binary{Path: l.Override, Platform: l.goos()}, nil
		}
		return nil, notFound(fmt.Errorf("configured browser binary %s does not exist", l.Override))
	}

	root, err := l.Root()
	if err != nil {
		return nil, notFound(err)
	}

	dir, err := latestChromiumDir(root)
	if err != nil {
		return nil, notFound(err)
	}

	for _, exe := range executables {
		p := filepath.Join(append([]string{dir}, exe.rel...)...)
		if isFile(p) {
			return &Binary{Path: p, Platform: exe.platform}, nil
		}
	}
	return nil, notFound(fmt.Errorf("no chromium executable under %s", dir))
}

// latestChromiumDir returns the lexicographically last chromium-* directory
// under root. Playwright embeds the build number in the name, so the last
// one is the most recent install.
func latestChromiumDir(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("browser cache %s: %w", root, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), chromiumPrefix) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no %s* directory in %s", chromiumPrefix, root)
	}

	sort.Strings(names)
	return filepath.Join(root, names[len(names)-1]), nil
}

func notFound(err error) *models.ScrapeError {
	return models.NewScrapeError(models.ErrCodeBrowserNotFound, "Chromium not found", err).
		WithHint("Run: " + InstallHint)
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

func (l *Locator) getenv(k string) string {
	if l.Getenv != nil {
		return l.Getenv(k)
	}
	return os.Getenv(k)
}

func (l *Locator) homeDir() (string, error) {
	if l.HomeDir != nil {
		return l.HomeDir()
	}
	return os.UserHomeDir()
}

func (l *Locator) goos() string {
	if l.GOOS != "" {
		return l.GOOS
	}
	return runtime.GOOS
}
