package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arq-generator/internal/config"
	"arq-generator/internal/diagram"
	"arq-generator/internal/git/types"
	llmerrors "arq-generator/internal/llm/errors"
	"arq-generator/internal/repo"
	"arq-generator/internal/scanner"
)

// mockLLMClient implements providers.LLMClient for testing
type mockLLMClient struct {
	models     []string
	listErr    error
	response   string
	err        error
	callCount  int
	callInputs []string
}

func (m *mockLLMClient) Name() string  { return "mock" }
func (m *mockLLMClient) Model() string { return "mock-model" }

func (m *mockLLMClient) ListModels(ctx context.Context) ([]string, error) {
	return m.models, m.listErr
}

func (m *mockLLMClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	m.callCount++
	m.callInputs = append(m.callInputs, prompt)
	return m.response, m.err
}

// fakeCheckouts materializes a fixed tree instead of cloning
type fakeCheckouts struct {
	t          *testing.T
	files      map[string]string
	info       *types.RepoInfo
	inspectErr error
	gotBranch  string
	calls      int
}

func (f *fakeCheckouts) Inspect(ctx context.Context, url string) (*types.RepoInfo, error) {
	return f.info, f.inspectErr
}

func (f *fakeCheckouts) WithCheckout(ctx context.Context, url string, depth int, branch string, fn func(dir string) error) error {
	f.calls++
	f.gotBranch = branch
	dir := f.t.TempDir()
	writeFiles(f.t, dir, f.files)
	return fn(dir)
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// rideShareFiles is a small Java monorepo with two modules
func rideShareFiles() map[string]string {
	return map[string]string{
		"pom.xml":                           "<project><dependencies></dependencies></project>",
		"drivers/DriverService.java":        "class DriverService {}",
		"payments/PaymentService.java":      "class PaymentService {}",
		"payments/PaymentRepository.java":   "class PaymentRepository {}",
		"drivers/src/main/App.java":         "class App {}",
		"node_modules/left-pad/index.js":    "module.exports = 1",
		".github/workflows/ci.yml":          "on: push",
		"payments/assets/logo.png":          "png",
		"drivers/src/main/resources/x.yaml": "a: 1",
	}
}

const ridesResponse = "Here is the diagram:\n```mermaid\ngraph TD\n" +
	"    A[drivers] --> B[payments]\n" +
	"    B --> C[Database]\n" +
	"    A --> D[PaymentService]\n" +
	"    X[Load Balancer] --> A\n" +
	"```\nLet me know if you need anything else."

func newTestAnalyzer(llm *mockLLMClient, checkouts *fakeCheckouts) *ArchitectureAnalyzer {
	cfg := &config.Config{
		ModelHealthTimeoutSeconds: 5,
		ModelMaxResponseTokens:    2000,
		Rules:                     config.DefaultRules(),
	}
	return newAnalyzer(cfg, llm, checkouts)
}

func TestAnalyzeRepository_Success(t *testing.T) {
	llm := &mockLLMClient{models: []string{"mock-model"}, response: ridesResponse}
	checkouts := &fakeCheckouts{t: t, files: rideShareFiles(), info: &types.RepoInfo{DefaultBranch: "trunk"}}
	analyzer := newTestAnalyzer(llm, checkouts)

	result, err := analyzer.AnalyzeRepository(context.Background(), "https://github.com/acme/rides", 1)
	require.NoError(t, err)

	assert.Equal(t, "trunk", checkouts.gotBranch)
	assert.True(t, strings.HasPrefix(result, diagram.CanonicalHeader+"\n"), "result: %q", result)
	assert.Contains(t, result, "    A[drivers] --> B[payments]")
	assert.Contains(t, result, "    A[drivers] --> D[PaymentService]")
	assert.NotContains(t, result, "Database")
	assert.NotContains(t, result, "Load Balancer")

	require.Equal(t, 1, llm.callCount)
	prompt := llm.callInputs[0]
	assert.Contains(t, prompt, "drivers")
	assert.Contains(t, prompt, "payments")
	assert.NotContains(t, prompt, "node_modules")
	assert.NotContains(t, prompt, "logo.png")
}

func TestAnalyzeRepository_InvalidURL(t *testing.T) {
	llm := &mockLLMClient{models: []string{"mock-model"}, response: ridesResponse}
	checkouts := &fakeCheckouts{t: t}
	analyzer := newTestAnalyzer(llm, checkouts)

	_, err := analyzer.AnalyzeRepository(context.Background(), "ftp://example.com/repo", 1)

	var invalid *repo.InvalidURLError
	require.ErrorAs(t, err, &invalid)
	assert.Zero(t, checkouts.calls)
	assert.Zero(t, llm.callCount)
}

func TestAnalyzeRepository_InvalidDepth(t *testing.T) {
	analyzer := newTestAnalyzer(&mockLLMClient{}, &fakeCheckouts{t: t})

	_, err := analyzer.AnalyzeRepository(context.Background(), "https://github.com/acme/rides", 4)
	assert.ErrorIs(t, err, scanner.ErrInvalidDepth)
}

func TestAnalyzeRepository_GeneratorUnavailable(t *testing.T) {
	llm := &mockLLMClient{models: []string{"other-model"}}
	checkouts := &fakeCheckouts{t: t, files: rideShareFiles()}
	analyzer := newTestAnalyzer(llm, checkouts)

	_, err := analyzer.AnalyzeRepository(context.Background(), "https://github.com/acme/rides", 1)

	assert.True(t, llmerrors.IsUnavailable(err), "expected unavailable, got %v", err)
	assert.False(t, llmerrors.IsTimeout(err))
	assert.Zero(t, checkouts.calls, "nothing is cloned when the generator is missing")
}

func TestAnalyzeRepository_PreflightSizeLimit(t *testing.T) {
	llm := &mockLLMClient{models: []string{"mock-model"}}
	checkouts := &fakeCheckouts{t: t, inspectErr: &repo.SizeLimitError{SizeMB: 512, LimitMB: 100}}
	analyzer := newTestAnalyzer(llm, checkouts)

	_, err := analyzer.AnalyzeRepository(context.Background(), "https://github.com/acme/huge", 1)

	var sizeErr *repo.SizeLimitError
	require.ErrorAs(t, err, &sizeErr)
	assert.Zero(t, checkouts.calls)
}

func TestGenerateDiagram_EmptyResponse(t *testing.T) {
	for _, response := range []string{"", "   \n\t\n"} {
		llm := &mockLLMClient{response: response}
		analyzer := newTestAnalyzer(llm, nil)

		_, err := analyzer.GenerateDiagram(context.Background(), &scanner.RepositoryStructure{Tree: []string{"main.go"}})
		assert.ErrorIs(t, err, llmerrors.ErrEmptyResponse)
	}
}

func TestGenerateDiagram_GeneratorErrorsKeepTheirKind(t *testing.T) {
	timeout := &llmerrors.TimeoutError{Provider: "mock", Err: context.DeadlineExceeded}
	analyzer := newTestAnalyzer(&mockLLMClient{err: timeout}, nil)

	_, err := analyzer.GenerateDiagram(context.Background(), &scanner.RepositoryStructure{})
	assert.True(t, llmerrors.IsTimeout(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestAnalyzeDirectory_ProseFallsBackToTokens(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, rideShareFiles())
	analyzer := newTestAnalyzer(&mockLLMClient{response: "Sorry, I cannot draw this repository."}, nil)

	result, err := analyzer.AnalyzeDirectory(context.Background(), dir, 1)
	require.NoError(t, err)

	lines := strings.Split(result, "\n")
	assert.Equal(t, diagram.CanonicalHeader, lines[0])
	require.Greater(t, len(lines), 1)
	assert.True(t, strings.HasPrefix(lines[1], "    N1["), "result: %q", result)
}

func TestAnalyzeDirectory_EmptyRepositoryYieldsPlaceholder(t *testing.T) {
	analyzer := newTestAnalyzer(&mockLLMClient{response: "flowchart TD\n    A[Gateway] --> B[Backend]"}, nil)

	result, err := analyzer.AnalyzeDirectory(context.Background(), t.TempDir(), 1)
	require.NoError(t, err)
	assert.Equal(t, diagram.Placeholder, result)
}

func TestAnalyzeDirectory_ResultIsNormalized(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, rideShareFiles())
	analyzer := newTestAnalyzer(&mockLLMClient{response: ridesResponse}, nil)

	result, err := analyzer.AnalyzeDirectory(context.Background(), dir, 2)
	require.NoError(t, err)
	assert.Equal(t, result, diagram.Normalize(result))
}
