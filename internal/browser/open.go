// Package browser opens links from the terminal client in the system browser.
package browser

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// ErrUnsupportedURL is returned for anything but absolute http(s) URLs.
var ErrUnsupportedURL = errors.New("browser: only http and https links can be opened")

// launch starts the platform opener. Tests replace it.
var launch = func(rawURL string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", rawURL).Start()
	case "linux":
		return exec.Command("xdg-open", rawURL).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL).Start()
	default:
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}

// Open opens the specified URL in the user's default browser.
func Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
	}
	return launch(u.String())
}
