package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v83/github"
	"github.com/okian/trustscore/internal/domain/model"
	"github.com/okian/trustscore/pkg/logger"
	"github.com/okian/trustscore/pkg/metrics"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	sourceGitHub       = "github"
	commitPageSize     = 100
	maxCommitPages     = 10
	contributorWindow  = 365 * 24 * time.Hour
	rateLimitThreshold = 10
)

// CodeInfo is what the scorer needs from a code repository.
type CodeInfo struct {
	License      string
	Language     string
	Readme       string
	Files        []model.FileEntry
	Contributors map[string]int
}

// GitHub reads repository metadata, tree, README and recent commits.
type GitHub struct {
	client  *github.Client
	limiter *rate.Limiter
	logger  logger.Logger
	now     func() time.Time
}

// GitHubOption configures a GitHub client.
type GitHubOption func(*GitHub) error

// WithGitHubBaseURL points the client at another API root, such as a
// GitHub Enterprise server.
func WithGitHubBaseURL(raw string) GitHubOption {
	return func(g *GitHub) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("github base url: %w", err)
		}
		g.client.BaseURL = u
		return nil
	}
}

// NewGitHub creates a client. An empty token uses unauthenticated access.
func NewGitHub(ctx context.Context, token string, limiter *rate.Limiter, opts ...GitHubOption) (*GitHub, error) {
	var hc *http.Client
	if token != "" {
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			TokenType:   "token",
			AccessToken: token,
		}))
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	g := &GitHub{
		client:  github.NewClient(hc),
		limiter: limiter,
		logger:  logger.Named("github"),
		now:     time.Now,
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Repo fetches a repository. Only the repository lookup itself is fatal;
// README, tree and commit failures leave those fields empty.
func (g *GitHub) Repo(ctx context.Context, owner, repo string) (CodeInfo, error) {
	var r *github.Repository
	err := g.call(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var err error
		r, resp, err = g.client.Repositories.Get(ctx, owner, repo)
		return resp, err
	})
	if err != nil {
		return CodeInfo{}, fmt.Errorf("get repo %s/%s: %w", owner, repo, err)
	}

	info := CodeInfo{Language: r.GetLanguage()}
	if r.License != nil {
		info.License = r.License.GetSPDXID()
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		readme, err := g.readme(gctx, owner, repo)
		g.soft(ctx, "readme", owner, repo, err)
		info.Readme = readme
		return nil
	})
	grp.Go(func() error {
		files, err := g.tree(gctx, owner, repo, r.GetDefaultBranch())
		g.soft(ctx, "tree", owner, repo, err)
		info.Files = files
		return nil
	})
	grp.Go(func() error {
		contributors, err := g.contributors(gctx, owner, repo)
		g.soft(ctx, "commits", owner, repo, err)
		info.Contributors = contributors
		return nil
	})
	_ = grp.Wait()
	return info, nil
}

func (g *GitHub) readme(ctx context.Context, owner, repo string) (string, error) {
	var content *github.RepositoryContent
	err := g.call(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var err error
		content, resp, err = g.client.Repositories.GetReadme(ctx, owner, repo, nil)
		return resp, err
	})
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return content.GetContent()
}

func (g *GitHub) tree(ctx context.Context, owner, repo, branch string) ([]model.FileEntry, error) {
	if branch == "" {
		branch = defaultRevision
	}
	var tree *github.Tree
	err := g.call(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var err error
		tree, resp, err = g.client.Git.GetTree(ctx, owner, repo, branch, true)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	files := make([]model.FileEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e.GetType() != "blob" {
			continue
		}
		files = append(files, model.FileEntry{Path: e.GetPath(), Size: int64(e.GetSize())})
	}
	return files, nil
}

// contributors counts commits per author over the trailing year. Authors
// without a GitHub account are keyed by email, then by name.
func (g *GitHub) contributors(ctx context.Context, owner, repo string) (map[string]int, error) {
	opt := &github.CommitsListOptions{
		Since:       g.now().Add(-contributorWindow),
		ListOptions: github.ListOptions{PerPage: commitPageSize, Page: 1},
	}
	counts := map[string]int{}
	for page := 0; page < maxCommitPages; page++ {
		var commits []*github.RepositoryCommit
		var next int
		err := g.call(ctx, func() (*github.Response, error) {
			var resp *github.Response
			var err error
			commits, resp, err = g.client.Repositories.ListCommits(ctx, owner, repo, opt)
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return counts, err
		}
		for _, c := range commits {
			if key := authorKey(c); key != "" {
				counts[key]++
			}
		}
		if next == 0 {
			break
		}
		opt.Page = next
	}
	return counts, nil
}

func authorKey(c *github.RepositoryCommit) string {
	if login := c.GetAuthor().GetLogin(); login != "" {
		return login
	}
	a := c.GetCommit().GetAuthor()
	if a.GetEmail() != "" {
		return a.GetEmail()
	}
	return a.GetName()
}

// call waits for the limiter, runs fn and records the outcome.
func (g *GitHub) call(ctx context.Context, fn func() (*github.Response, error)) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	start := time.Now()
	resp, err := fn()
	outcome := "ok"
	switch {
	case resp != nil && resp.StatusCode == http.StatusNotFound:
		outcome = "not_found"
		err = fmt.Errorf("%w: %w", ErrNotFound, err)
	case err != nil:
		outcome = "error"
	}
	metrics.RecordFetch(sourceGitHub, outcome, metrics.Millis(time.Since(start)))
	g.checkRateLimit(ctx, resp)
	return err
}

func (g *GitHub) checkRateLimit(ctx context.Context, resp *github.Response) {
	if resp == nil || resp.Rate.Limit == 0 || resp.Rate.Remaining > rateLimitThreshold {
		return
	}
	g.logger.Warn(ctx, "github rate limit nearly exhausted",
		logger.Int("remaining", resp.Rate.Remaining),
		logger.String("reset_at", resp.Rate.Reset.Format(time.RFC3339)),
	)
}

func (g *GitHub) soft(ctx context.Context, what, owner, repo string, err error) {
	if err == nil {
		return
	}
	g.logger.Warn(ctx, "github lookup failed; leaving field empty",
		logger.String("part", what),
		logger.String("repo", owner+"/"+repo),
		logger.Error(err),
	)
}
