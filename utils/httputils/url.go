package httputils

import (
	"net/url"
	"strings"

	"github.com/mattermost/mattermost-interactions/utils"
)

// IsValidURL returns an ErrInvalid unless rawURL is an absolute http or
// https URL with a host.
func IsValidURL(rawURL string) error {
	_, err := CleanURL(rawURL)
	return err
}

// CleanURL validates an API root URL, and returns it without trailing
// slashes so that paths can be appended to it.
func CleanURL(rawURL string) (string, error) {
	u, err := url.ParseRequestURI(rawURL)
	switch {
	case err != nil:
		return "", utils.NewInvalidError(err)
	case u.Scheme != "http" && u.Scheme != "https":
		return "", utils.NewInvalidError("URL %q must use http or https", rawURL)
	case u.Host == "":
		return "", utils.NewInvalidError("URL %q has no host", rawURL)
	}
	return strings.TrimRight(rawURL, "/"), nil
}
