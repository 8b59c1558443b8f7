package internal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"arq-generator/internal/config"
	"arq-generator/internal/diagram"
	"arq-generator/internal/git/github"
	"arq-generator/internal/git/gitlab"
	"arq-generator/internal/git/types"
	llmerrors "arq-generator/internal/llm/errors"
	"arq-generator/internal/llm/providers"
	"arq-generator/internal/prompt"
	"arq-generator/internal/repo"
	"arq-generator/internal/scanner"
)

// checkouts is the repository acquisition collaborator
type checkouts interface {
	Inspect(ctx context.Context, url string) (*types.RepoInfo, error)
	WithCheckout(ctx context.Context, url string, depth int, branch string, fn func(dir string) error) error
}

type ArchitectureAnalyzer struct {
	checkouts   checkouts
	llmClient   providers.LLMClient
	scanner     *scanner.Scanner
	synthesizer *prompt.Synthesizer
	validator   *diagram.Validator
	config      *config.Config
}

func New(ctx context.Context, cfg *config.Config) (*ArchitectureAnalyzer, error) {
	llmClient, err := providers.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	gitlabInspector, err := gitlab.NewInspector(cfg)
	if err != nil {
		return nil, err
	}

	acquirer := repo.New(cfg, github.NewInspector(cfg), gitlabInspector)

	return newAnalyzer(cfg, llmClient, acquirer), nil
}

func newAnalyzer(cfg *config.Config, llmClient providers.LLMClient, checkouts checkouts) *ArchitectureAnalyzer {
	rules := cfg.Rules
	return &ArchitectureAnalyzer{
		checkouts:   checkouts,
		llmClient:   llmClient,
		scanner:     scanner.New(rules.Scan),
		synthesizer: prompt.New(rules.Prompt, rules.Validation.ForbiddenTerms),
		validator:   diagram.NewValidator(rules.Validation),
		config:      cfg,
	}
}

// Generator returns the configured text-generation client
func (aa *ArchitectureAnalyzer) Generator() providers.LLMClient {
	return aa.llmClient
}

// CheckGenerator verifies the generation service answers and serves the
// configured model
func (aa *ArchitectureAnalyzer) CheckGenerator(ctx context.Context) error {
	timeout := time.Duration(aa.config.ModelHealthTimeoutSeconds) * time.Second
	return providers.EnsureModel(ctx, aa.llmClient, timeout)
}

// AnalyzeRepository validates url, runs the generator check and the remote
// preflight in parallel, then clones the repository and analyzes it
func (aa *ArchitectureAnalyzer) AnalyzeRepository(ctx context.Context, url string, depth int) (string, error) {
	slog.Debug("Starting repository analysis", "url", url, "depth", depth)

	if err := repo.ValidateURL(url); err != nil {
		return "", err
	}
	if err := scanner.ValidateDepth(depth); err != nil {
		return "", err
	}

	g, gCtx := errgroup.WithContext(ctx)

	var info *types.RepoInfo
	g.Go(func() error {
		return aa.CheckGenerator(gCtx)
	})
	g.Go(func() error {
		var err error
		info, err = aa.checkouts.Inspect(gCtx, url)
		return err
	})

	if err := g.Wait(); err != nil {
		return "", err
	}

	var branch string
	if info != nil {
		branch = info.DefaultBranch
	}

	var result string
	err := aa.checkouts.WithCheckout(ctx, url, depth, branch, func(dir string) error {
		var err error
		result, err = aa.AnalyzeDirectory(ctx, dir, depth)
		return err
	})
	if err != nil {
		return "", err
	}

	return result, nil
}

// AnalyzeDirectory scans an already materialized checkout and generates its
// diagram
func (aa *ArchitectureAnalyzer) AnalyzeDirectory(ctx context.Context, dir string, depth int) (string, error) {
	structure, err := aa.scanner.Scan(dir, depth)
	if err != nil {
		return "", fmt.Errorf("failed to scan repository: %w", err)
	}

	return aa.GenerateDiagram(ctx, structure)
}

// GenerateDiagram runs prompt, generation, extraction, normalization and
// validation for a scanned structure. Only prompt and generation can fail;
// every later stage degrades to a well-formed diagram.
func (aa *ArchitectureAnalyzer) GenerateDiagram(ctx context.Context, structure *scanner.RepositoryStructure) (string, error) {
	userPrompt, err := aa.synthesizer.Build(structure)
	if err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}

	slog.Debug("Prompt built", "chars", len(userPrompt))

	response, err := aa.llmClient.Generate(ctx, userPrompt, aa.config.ModelMaxResponseTokens)
	if err != nil {
		return "", fmt.Errorf("failed to generate diagram: %w", err)
	}
	if strings.TrimSpace(response) == "" {
		return "", llmerrors.ErrEmptyResponse
	}

	extracted := diagram.Extract(response)
	normalized := diagram.Normalize(extracted)
	outcome := aa.validator.Validate(normalized, structure)
	final := diagram.Normalize(outcome.Diagram)

	slog.Debug("Diagram generated",
		"response_chars", len(response),
		"removed_lines", outcome.Removed,
		"fell_back", outcome.FellBack,
		"lines", strings.Count(final, "\n")+1)

	return final, nil
}
