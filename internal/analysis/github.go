package analysis

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	gogithub "github.com/google/go-github/v56/github"
	"golang.org/x/oauth2"

	"github.com/NikhilSetiya/securex/pkg/config"
)

var repoPath = regexp.MustCompile(`^https://github\.com/([\w-]+)/([\w.-]+?)(?:\.git)?(?:/.*)?$`)

// ParseRepository splits a GitHub repository URL into owner and name
func ParseRepository(rawURL string) (owner, name string, ok bool) {
	m := repoPath.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// RepoMetadata is public repository information used to focus the analysis
type RepoMetadata struct {
	FullName      string
	Description   string
	DefaultBranch string
	Languages     []string
	Topics        []string
	Archived      bool
}

// Describe renders the metadata as prompt context
func (m *RepoMetadata) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository context: %s", m.FullName)
	if m.Description != "" {
		fmt.Fprintf(&b, "\nDescription: %s", m.Description)
	}
	if len(m.Languages) > 0 {
		fmt.Fprintf(&b, "\nLanguages (by size): %s", strings.Join(m.Languages, ", "))
	}
	if len(m.Topics) > 0 {
		fmt.Fprintf(&b, "\nTopics: %s", strings.Join(m.Topics, ", "))
	}
	if m.DefaultBranch != "" {
		fmt.Fprintf(&b, "\nDefault branch: %s", m.DefaultBranch)
	}
	if m.Archived {
		b.WriteString("\nThe repository is archived and receives no security updates.")
	}
	return b.String()
}

// RepoInspector fetches repository metadata
type RepoInspector interface {
	Inspect(ctx context.Context, repoURL string) (*RepoMetadata, error)
}

// GitHubInspector reads repository metadata from the GitHub API
type GitHubInspector struct {
	client *gogithub.Client
}

// NewGitHubInspector creates an inspector. Without a token it uses the
// unauthenticated rate limit.
func NewGitHubInspector(cfg config.GitHubConfig, httpClient *http.Client) *GitHubInspector {
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		ctx := context.Background()
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		httpClient = oauth2.NewClient(ctx, ts)
	}
	return &GitHubInspector{client: gogithub.NewClient(httpClient)}
}

// Inspect returns metadata for the repository at repoURL
func (g *GitHubInspector) Inspect(ctx context.Context, repoURL string) (*RepoMetadata, error) {
	owner, name, ok := ParseRepository(repoURL)
	if !ok {
		return nil, fmt.Errorf("not a GitHub repository URL: %s", repoURL)
	}

	repo, _, err := g.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("getting GitHub repo %s/%s: %w", owner, name, err)
	}

	meta := &RepoMetadata{
		FullName:      repo.GetFullName(),
		Description:   repo.GetDescription(),
		DefaultBranch: repo.GetDefaultBranch(),
		Topics:        repo.Topics,
		Archived:      repo.GetArchived(),
	}

	langs, _, err := g.client.Repositories.ListLanguages(ctx, owner, name)
	if err == nil {
		meta.Languages = rankLanguages(langs)
	}
	return meta, nil
}

func rankLanguages(bytesByLang map[string]int) []string {
	out := make([]string, 0, len(bytesByLang))
	for lang := range bytesByLang {
		out = append(out, lang)
	}
	sort.Slice(out, func(i, j int) bool {
		if bytesByLang[out[i]] != bytesByLang[out[j]] {
			return bytesByLang[out[i]] > bytesByLang[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
