package release

import (
	"context"
	"encoding/json"

	"embedup/internal/platform/errors"
	"embedup/internal/platform/httpclient"
	"embedup/internal/platform/logx"
)

// DefaultIndexURL is the release index of the patched compiler distribution.
const DefaultIndexURL = "https://api.github.com/repos/esp-rs/rust-build/releases?per_page=100"

// Release is one entry of the remote release index. Only the tag and asset
// names are consumed; everything else in the payload is ignored.
type Release struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name string `json:"name"`
	} `json:"assets"`
}

// Resolver maps loose version strings to exact release versions. The index
// is fetched fresh per resolution; releases are not append-only, so a cached
// list could miss a new build of an old release.
type Resolver struct {
	client   *httpclient.Client
	indexURL string
	logger   logx.Logger
}

// NewResolver creates a resolver against indexURL, falling back to
// DefaultIndexURL when empty.
func NewResolver(client *httpclient.Client, indexURL string, logger logx.Logger) *Resolver {
	if indexURL == "" {
		indexURL = DefaultIndexURL
	}
	return &Resolver{
		client:   client,
		indexURL: indexURL,
		logger:   logger.With("component", "release"),
	}
}

// Resolve turns a requested version string into an exact release version.
//
// A three-component request selects the release with the highest subpatch
// among those sharing the prefix; the comparison is numeric, so subpatch 10
// beats subpatch 9. A four-component request must match an existing tag
// exactly. Any other shape fails with ErrInvalidVersion.
func (r *Resolver) Resolve(ctx context.Context, requested string) (Version, error) {
	want, exact, err := ParseRequest(requested)
	if err != nil {
		return Version{}, err
	}

	index, err := r.fetchIndex(ctx)
	if err != nil {
		return Version{}, err
	}

	if exact {
		for _, rel := range index {
			if v, ok := ParseTag(rel.TagName); ok && v == want {
				return v, nil
			}
		}
		return Version{}, errors.Wrapf(errors.ErrNoMatchingRelease, "%q", requested)
	}

	found := false
	var best Version
	for _, rel := range index {
		v, ok := ParseTag(rel.TagName)
		if !ok || v.Prefix() != want.Prefix() {
			continue
		}
		if !found || v.Subpatch > best.Subpatch {
			best = v
			found = true
		}
	}
	if !found {
		return Version{}, errors.Wrapf(errors.ErrNoMatchingRelease, "%q", requested)
	}

	r.logger.Debug("resolved toolchain version", "requested", requested, "exact", best.String())
	return best, nil
}

// Latest returns the newest release in the index, for runs where the user
// gives no version at all.
func (r *Resolver) Latest(ctx context.Context) (Version, error) {
	index, err := r.fetchIndex(ctx)
	if err != nil {
		return Version{}, err
	}

	found := false
	var best Version
	for _, rel := range index {
		v, ok := ParseTag(rel.TagName)
		if !ok {
			continue
		}
		if !found || less(best, v) {
			best = v
			found = true
		}
	}
	if !found {
		return Version{}, errors.Wrap(errors.ErrNoMatchingRelease, "release index is empty")
	}
	return best, nil
}

func (r *Resolver) fetchIndex(ctx context.Context) ([]Release, error) {
	body, err := r.client.GetBody(ctx, r.indexURL, map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query release index")
	}

	var index []Release
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, errors.Wrap(err, "failed to decode release index")
	}
	return index, nil
}

func less(a, b Version) bool {
	if a.Major != b.Major {
		return a.Major < b.Major
	}
	if a.Minor != b.Minor {
		return a.Minor < b.Minor
	}
	if a.Patch != b.Patch {
		return a.Patch < b.Patch
	}
	return a.Subpatch < b.Subpatch
}
