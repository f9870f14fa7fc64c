package biliupr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// githubRelease is the JSON wire format of a release. Assets stay raw so a
// single malformed entry does not reject the whole payload; the tag stays raw
// so a numeric tag is kept as its text.
type githubRelease struct {
	TagName json.RawMessage `json:"tag_name"`
	HTMLURL string          `json:"html_url"`
	Assets  json.RawMessage `json:"assets"`
}

// githubAsset is the JSON wire format for a release asset.
type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// LatestRelease fetches the latest release of the configured repository.
//
// Transport errors and *StatusError are returned as-is. A body that is not a
// JSON object is an *InstallError. There is no retry.
func (i *Installer) LatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", i.baseURL, i.repo)

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	req := i.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/vnd.github+json")
	if i.token != "" {
		req.SetAuthToken(i.token)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode()) {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode(), Status: resp.Status()}
	}

	release, err := parseRelease(resp.Body())
	if err != nil {
		return nil, err
	}

	i.logger.Debug("fetched latest release", "repo", i.repo, "tag", release.TagName, "assets", len(release.Assets))
	return release, nil
}

// parseRelease decodes a release payload. Asset entries that are not objects
// are skipped, matching how selection ignores entries it cannot read.
func parseRelease(body []byte) (*Release, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, installErrorf("unexpected JSON payload type: expected an object")
	}

	var gr githubRelease
	if err := json.Unmarshal(trimmed, &gr); err != nil {
		return nil, &InstallError{Msg: "malformed release payload", Err: err}
	}

	release := &Release{
		TagName: tagText(gr.TagName),
		HTMLURL: gr.HTMLURL,
	}

	raw := bytes.TrimSpace(gr.Assets)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return release, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, &InstallError{Msg: "release payload is missing a valid assets list", Err: err}
	}

	release.Assets = make([]Asset, 0, len(entries))
	for _, entry := range entries {
		var ga githubAsset
		if err := json.Unmarshal(entry, &ga); err != nil {
			continue
		}
		release.Assets = append(release.Assets, Asset(ga))
	}

	return release, nil
}

// tagText renders a raw tag_name value: strings are unquoted, null or absent
// is empty, and any other value keeps its JSON text.
func tagText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
