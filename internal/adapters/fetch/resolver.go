package fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/trustscore/internal/domain/model"
	"github.com/okian/trustscore/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Resolver turns URL file targets into repository descriptors.
type Resolver struct {
	hf          *HF
	github      *GitHub
	concurrency int
	logger      logger.Logger
}

// NewResolver creates a resolver backed by the Hub client hf.
func NewResolver(hf *HF, opts ...Option) *Resolver {
	r := &Resolver{
		hf:          hf,
		concurrency: defaultConcurrency,
		logger:      logger.Named("fetch"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveAll resolves targets with bounded concurrency and hands each
// descriptor to fn. Lookup failures never stop the batch; only fn errors
// and cancellation do.
func (r *Resolver) ResolveAll(ctx context.Context, targets []Target, fn func(seq int, d model.RepositoryDescriptor) error) error {
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(r.concurrency)
	for _, t := range targets {
		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(t.Seq, r.Resolve(gctx, t))
		})
	}
	return grp.Wait()
}

// Resolve builds a descriptor for one target. When the model cannot be
// fetched the descriptor carries only the name and URL, which scores low
// but still produces a record.
func (r *Resolver) Resolve(ctx context.Context, t Target) model.RepositoryDescriptor {
	d := model.RepositoryDescriptor{
		Name:       t.ModelURL,
		URL:        t.ModelURL,
		Kind:       model.KindModel,
		DatasetURL: t.DatasetURL,
		CodeURL:    t.CodeURL,
	}
	if t.ModelURL == "" {
		d.Name, d.URL, d.Kind = t.CodeURL, t.CodeURL, model.KindCode
		if t.CodeURL == "" {
			d.Name, d.URL, d.Kind = t.DatasetURL, t.DatasetURL, model.KindDataset
		}
	}

	ref, err := r.hf.Ref(d.URL)
	if err != nil {
		r.logger.Warn(ctx, "unsupported url; scoring without registry data", logger.String("url", d.URL), logger.Error(err))
		return d
	}
	d.Name = ref.ID
	d.Kind = ref.Kind

	var (
		info    hfInfo
		readme  string
		code    *CodeInfo
		dataset *model.DatasetSignals
		infoErr error
	)

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		var err error
		if ref.Kind == model.KindDataset {
			info, err = r.hf.Dataset(gctx, ref.ID)
		} else {
			info, err = r.hf.Model(gctx, ref)
		}
		infoErr = err
		return nil
	})
	grp.Go(func() error {
		var err error
		readme, err = r.hf.Readme(gctx, ref)
		r.soft(ctx, "readme", ref.ID, err)
		return nil
	})
	if t.CodeURL != "" {
		grp.Go(func() error {
			code = r.code(gctx, t.CodeURL)
			return nil
		})
	}
	if t.DatasetURL != "" {
		grp.Go(func() error {
			dataset = r.dataset(gctx, t.DatasetURL)
			return nil
		})
	}
	_ = grp.Wait()
	d.Readme = readme

	if infoErr != nil {
		r.logger.Warn(ctx, "registry lookup failed; scoring degraded descriptor",
			logger.String("id", ref.ID), logger.Error(infoErr))
		applyCode(&d, code)
		return d
	}
	applyInfo(&d, info, ref)
	if len(info.Spaces) > 0 {
		d.DemoURL = r.hf.endpoint + "/spaces/" + info.Spaces[0]
	}

	if d.DatasetURL == "" {
		if ids := info.card().Datasets; len(ids) > 0 {
			d.DatasetURL = r.hf.endpoint + "/datasets/" + ids[0]
			dataset = r.dataset(ctx, d.DatasetURL)
		}
	}
	if d.CodeURL == "" {
		if u := info.githubURL(); u != "" {
			d.CodeURL = u
			code = r.code(ctx, u)
		}
	}
	if dataset != nil {
		d.Dataset = *dataset
	}
	applyCode(&d, code)
	return d
}

func applyInfo(d *model.RepositoryDescriptor, info hfInfo, ref HFRef) {
	card := info.card()
	d.Downloads = info.Downloads
	d.Likes = info.Likes
	d.License = info.license()
	for _, s := range info.Siblings {
		d.Files = append(d.Files, model.FileEntry{Path: s.RFilename, Size: s.bytes()})
	}
	if info.LibraryName != "" || hasPython(d.Files) {
		d.Language = "python"
	}
	for _, entry := range card.ModelIndex {
		for _, res := range entry.Results {
			for _, m := range res.Metrics {
				v, ok := metricValue(m.Value)
				if !ok {
					continue
				}
				name := m.Name
				if name == "" {
					name = m.Type
				}
				d.Benchmarks = append(d.Benchmarks, model.Benchmark{
					Name:    name,
					Value:   v,
					Task:    firstNonEmpty(res.Task.Type, res.Task.Name),
					Dataset: firstNonEmpty(res.Dataset.Name, res.Dataset.Type),
				})
			}
		}
	}
	if ref.Kind == model.KindDataset {
		d.Dataset = datasetSignals(info, d.Readme != "")
	}
}

// applyCode fills what the model registry does not know from the linked
// code repository. Hub values win where both exist.
func applyCode(d *model.RepositoryDescriptor, code *CodeInfo) {
	if code == nil {
		return
	}
	d.Contributors = code.Contributors
	if d.License == "" {
		d.License = code.License
	}
	if code.Language != "" {
		d.Language = code.Language
	}
	if d.Readme == "" {
		d.Readme = code.Readme
	}
	if d.Kind == model.KindCode {
		d.Files = code.Files
	}
}

func (r *Resolver) code(ctx context.Context, raw string) *CodeInfo {
	if r.github == nil {
		return nil
	}
	owner, repo, err := ParseGitHub(raw)
	if err != nil {
		r.soft(ctx, "code", raw, err)
		return nil
	}
	info, err := r.github.Repo(ctx, owner, repo)
	if err != nil {
		r.soft(ctx, "code", raw, err)
		return nil
	}
	return &info
}

func (r *Resolver) dataset(ctx context.Context, raw string) *model.DatasetSignals {
	ref, err := r.hf.Ref(raw)
	if err != nil || ref.Kind != model.KindDataset {
		if err == nil {
			err = fmt.Errorf("%w: %q", ErrNotHuggingFace, raw)
		}
		r.soft(ctx, "dataset", raw, err)
		return nil
	}
	info, err := r.hf.Dataset(ctx, ref.ID)
	if err != nil {
		r.soft(ctx, "dataset", ref.ID, err)
		return nil
	}
	readme, err := r.hf.Readme(ctx, ref)
	r.soft(ctx, "dataset readme", ref.ID, err)
	s := datasetSignals(info, readme != "")
	return &s
}

func datasetSignals(info hfInfo, hasReadme bool) model.DatasetSignals {
	card := info.card()
	return model.DatasetSignals{
		Documented: hasReadme || info.CardData != nil,
		Downloads:  info.Downloads,
		Configs:    len(card.Configs),
		Viewer:     card.Viewer == nil || *card.Viewer,
	}
}

func (r *Resolver) soft(ctx context.Context, what, id string, err error) {
	if err == nil {
		return
	}
	r.logger.Warn(ctx, "lookup failed; leaving field empty",
		logger.String("part", what),
		logger.String("id", id),
		logger.Error(err),
	)
}

func hasPython(files []model.FileEntry) bool {
	for _, f := range files {
		if strings.HasSuffix(f.Path, ".py") {
			return true
		}
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
