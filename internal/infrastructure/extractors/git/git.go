// Package git implements the "git repository" extractor adapter: it
// clones (or reuses a prior clone of) a repository at a ref and emits
// one envelope per file under a path prefix whose name matches a glob,
// the batch extractor shape for a version-controlled data source
// alongside HTTP/DB/file sources.
package git

import (
	"os"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/flowforge/streamline/internal/domain/envelope"
	"github.com/flowforge/streamline/internal/infrastructure/extractors"
	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/pipelineerr"
)

const AdapterCode = "git"

// Config is a git extractor step's declarative config.
type Config struct {
	URL        string `json:"url" yaml:"url" validate:"required"`
	Ref        string `json:"ref,omitempty" yaml:"ref,omitempty"`
	PathPrefix string `json:"pathPrefix,omitempty" yaml:"pathPrefix,omitempty"`
	// FilePattern is a filepath.Match glob applied to each matched file's
	// base name, e.g. "*.json".
	FilePattern string `json:"filePattern,omitempty" yaml:"filePattern,omitempty"`
	// WorkDir is where the clone is cached between runs; a temp dir is
	// used when empty, which forces a fresh clone on every run.
	WorkDir string `json:"workDir,omitempty" yaml:"workDir,omitempty"`
}

// Extractor clones a git repository and extracts one envelope per
// matched file's content.
type Extractor struct{}

// New constructs the git extractor adapter.
func New() *Extractor { return &Extractor{} }

func (e *Extractor) Category() string    { return "source-control" }
func (e *Extractor) AdapterCode() string { return AdapterCode }

func (e *Extractor) GetSchema() map[string]any {
	return map[string]any{
		"url":         "string, required",
		"ref":         "string, optional branch/tag name, defaults to the remote default branch",
		"pathPrefix":  "string, optional directory within the repo to scan",
		"filePattern": "string, optional filepath.Match glob over file basenames",
		"workDir":     "string, optional local clone cache directory",
	}
}

func (e *Extractor) ExtractAll(ectx ports.ExtractorContext, cfg map[string]any) (ports.ExtractResult, error) {
	var c Config
	if err := extractors.Decode(cfg, &c); err != nil {
		return ports.ExtractResult{}, pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "decoding git extractor config")
	}

	repo, cleanup, err := e.open(ectx, c)
	if err != nil {
		return ports.ExtractResult{}, err
	}
	defer cleanup()

	worktree, err := repo.Worktree()
	if err != nil {
		return ports.ExtractResult{}, pipelineerr.Wrap(pipelineerr.AdapterFatal, err, "opening worktree")
	}
	root := worktree.Filesystem.Root()

	var envelopes []envelope.Envelope
	scanRoot := root
	if c.PathPrefix != "" {
		scanRoot = filepath.Join(root, c.PathPrefix)
	}

	walkErr := filepath.Walk(scanRoot, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ectx.IsCancelled != nil && ectx.IsCancelled() {
			return errCancelled
		}
		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if c.FilePattern != "" {
			matched, err := filepath.Match(c.FilePattern, info.Name())
			if err != nil {
				return pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "invalid filePattern")
			}
			if !matched {
				return nil
			}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return pipelineerr.Wrap(pipelineerr.RecoverableIO, err, "reading "+path)
		}
		rel, _ := filepath.Rel(root, path)
		envelopes = append(envelopes, envelope.Envelope{
			Data: map[string]any{
				"path":    filepath.ToSlash(rel),
				"content": string(data),
			},
			Meta: envelope.Meta{SourceID: c.URL},
		})
		return nil
	})
	if walkErr != nil {
		if walkErr == errCancelled {
			return ports.ExtractResult{Envelopes: envelopes, Done: true}, nil
		}
		return ports.ExtractResult{}, walkErr
	}

	return ports.ExtractResult{Envelopes: envelopes, Done: true}, nil
}

var errCancelled = pipelineerr.New(pipelineerr.Infrastructure, "git extractor cancelled mid-walk")

func (e *Extractor) open(ectx ports.ExtractorContext, c Config) (*gogit.Repository, func(), error) {
	dir := c.WorkDir
	cleanup := func() {}
	if dir == "" {
		tmp, err := os.MkdirTemp("", "streamline-git-*")
		if err != nil {
			return nil, cleanup, pipelineerr.Wrap(pipelineerr.Infrastructure, err, "creating clone workdir")
		}
		dir = tmp
		cleanup = func() { _ = os.RemoveAll(tmp) }
	}

	opts := &gogit.CloneOptions{URL: c.URL}
	if c.Ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(c.Ref)
		opts.SingleBranch = true
	}

	repo, err := gogit.PlainCloneContext(ectx.Context, dir, false, opts)
	if err != nil {
		if err == gogit.ErrRepositoryAlreadyExists {
			repo, err = gogit.PlainOpen(dir)
		}
		if err != nil {
			cleanup()
			return nil, func() {}, pipelineerr.Wrap(pipelineerr.RecoverableIO, err, "cloning "+c.URL)
		}
	}
	return repo, cleanup, nil
}

var (
	_ ports.Extractor      = (*Extractor)(nil)
	_ ports.BatchExtractor = (*Extractor)(nil)
	_ ports.SchemaProvider = (*Extractor)(nil)
)
