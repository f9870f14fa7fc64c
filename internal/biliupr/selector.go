package biliupr

import "strings"

// AssetPrefix marks the biliupR archives. Releases of the same repository
// also carry other products (bbup-*) that must never be picked.
const AssetPrefix = "biliupR-"

// SelectAsset picks the archive for platform p from a release's assets.
//
// Assets are first filtered by AssetPrefix. The platform's suffix list is then
// walked in priority order and the first asset, in release order, whose name
// ends with the current suffix wins.
func SelectAsset(assets []Asset, p Platform) (Asset, error) {
	var candidates []Asset
	for _, asset := range assets {
		if strings.HasPrefix(asset.Name, AssetPrefix) {
			candidates = append(candidates, asset)
		}
	}
	if len(candidates) == 0 {
		return Asset{}, installErrorf("no biliupR assets found in latest release")
	}

	suffixes, err := p.SuffixPriority()
	if err != nil {
		return Asset{}, err
	}

	for _, suffix := range suffixes {
		for _, asset := range candidates {
			if strings.HasSuffix(asset.Name, suffix) {
				return asset, nil
			}
		}
	}

	names := make([]string, 0, len(candidates))
	for _, asset := range candidates {
		names = append(names, asset.Name)
	}
	return Asset{}, installErrorf("no matching biliupR asset for %s. Available assets: %s",
		p, strings.Join(names, ", "))
}
