package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// repoPattern validates repositories in the format "owner/name".
var repoPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the config for required fields and valid values.
func Validate(c *Config) error {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	add(validateRepo(c.Biliupr.Repo))
	add(validateURL("biliupr.api_base_url", c.Biliupr.APIBaseURL, "http", "https"))
	add(validateProxy("network.proxy", c.Network.Proxy))
	add(validateProxy("biliupr.proxy", c.Biliupr.Proxy))
	add(validateMetadataFile(c.Biliupr.MetadataFile))

	if strings.TrimSpace(c.Biliupr.InstallDir) == "" {
		add(ValidationError{Field: "biliupr.install_dir", Message: "install_dir is required"})
	}
	if strings.TrimSpace(c.Biliupr.UserCookie) == "" {
		add(ValidationError{Field: "biliupr.user_cookie", Message: "user_cookie is required"})
	}

	for field, v := range map[string]int{
		"network.timeout_sec":             c.Network.TimeoutSec,
		"biliupr.check_timeout_sec":       c.Biliupr.CheckTimeoutSec,
		"biliupr.login_check_timeout_sec": c.Biliupr.LoginCheckTimeoutSec,
		"biliupr.lock_timeout_sec":        c.Biliupr.LockTimeoutSec,
	} {
		if v < 0 {
			add(ValidationError{Field: field, Message: fmt.Sprintf("must not be negative, got %d", v)})
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateRepo(repo string) error {
	if !repoPattern.MatchString(repo) {
		return ValidationError{
			Field:   "biliupr.repo",
			Message: fmt.Sprintf("invalid repo '%s' (must be owner/name format)", repo),
		}
	}
	return nil
}

func validateURL(field, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ValidationError{Field: field, Message: fmt.Sprintf("invalid URL '%s'", raw)}
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("unsupported scheme '%s' (must be one of %s)", u.Scheme, strings.Join(schemes, ", ")),
	}
}

// validateProxy accepts an empty value, meaning the environment's proxy.
func validateProxy(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return validateURL(field, strings.TrimSpace(raw), "http", "https", "socks5")
}

func validateMetadataFile(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return ValidationError{
			Field:   "biliupr.metadata_file",
			Message: fmt.Sprintf("invalid metadata_file '%s' (must be a bare file name)", name),
		}
	}
	return nil
}
