// Package gitinfo derives the registry's repository description from the git
// checkout that contains the block tree.
package gitinfo

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Repository is the provider and browsable URL of a remote.
type Repository struct {
	Provider string
	URL      string
}

// Detect opens the repository containing dir and describes its origin
// remote. A directory outside any repository, or a repository without an
// origin, yields a zero Repository and no error.
func Detect(dir string) (Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Repository{}, nil
		}
		return Repository{}, fmt.Errorf("opening git repository at %s: %w", dir, err)
	}

	remote, err := repo.Remote(git.DefaultRemoteName)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return Repository{}, nil
		}
		return Repository{}, fmt.Errorf("reading origin remote: %w", err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return Repository{}, nil
	}
	return FromRemoteURL(urls[0]), nil
}

// FromRemoteURL normalizes a clone URL into a browsable https URL and guesses
// the hosting provider from the host name.
func FromRemoteURL(raw string) Repository {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Repository{}
	}

	host, repoPath := "", ""
	switch {
	case strings.Contains(raw, "://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Repository{Provider: "git", URL: raw}
		}
		host, repoPath = u.Hostname(), strings.TrimPrefix(u.Path, "/")
	case strings.Contains(raw, ":"):
		// scp-like syntax: git@github.com:org/repo.git
		h, p, _ := strings.Cut(raw, ":")
		if i := strings.LastIndex(h, "@"); i >= 0 {
			h = h[i+1:]
		}
		host, repoPath = h, p
	default:
		return Repository{Provider: "git", URL: raw}
	}

	repoPath = strings.TrimSuffix(strings.TrimSuffix(repoPath, "/"), ".git")
	return Repository{
		Provider: providerFor(host),
		URL:      "https://" + host + "/" + repoPath,
	}
}

func providerFor(host string) string {
	switch {
	case strings.Contains(host, "github"):
		return "github"
	case strings.Contains(host, "gitlab"):
		return "gitlab"
	case strings.Contains(host, "bitbucket"):
		return "bitbucket"
	default:
		return "git"
	}
}
