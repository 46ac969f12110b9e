package explain

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/draftman/internal/model"
)

// mockCacheRepo はCacheRepositoryのモック実装。
type mockCacheRepo struct {
	findByHashFn func(ctx context.Context, hash string) (*model.CacheEntry, error)
	upsertFn     func(ctx context.Context, entry *model.CacheEntry) error
	upserted     []*model.CacheEntry
}

func (m *mockCacheRepo) FindByHash(ctx context.Context, hash string) (*model.CacheEntry, error) {
	if m.findByHashFn != nil {
		return m.findByHashFn(ctx, hash)
	}
	return nil, nil
}

func (m *mockCacheRepo) Upsert(ctx context.Context, entry *model.CacheEntry) error {
	m.upserted = append(m.upserted, entry)
	if m.upsertFn != nil {
		return m.upsertFn(ctx, entry)
	}
	return nil
}

// mockGenerator はTextGeneratorのモック実装。呼び出し回数とプロンプトを記録する。
type mockGenerator struct {
	generateFn  func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	callCount   int
	lastSystem  string
	lastUser    string
}

func (m *mockGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.callCount++
	m.lastSystem = systemPrompt
	m.lastUser = userPrompt
	if m.generateFn != nil {
		return m.generateFn(ctx, systemPrompt, userPrompt)
	}
	return "generated explanation", nil
}

// mockGuard はFetchGuardServiceのモック実装。検証を素通しし、素のHTTPクライアントを返す。
type mockGuard struct {
	validateErr error
}

func (m *mockGuard) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (m *mockGuard) ValidateURL(rawURL string) error {
	return m.validateErr
}

func newTestService(repo *mockCacheRepo, gen *mockGenerator, guard *mockGuard) *Service {
	return NewService(repo, gen, guard, 5*time.Second, 1024*1024, slog.Default(), nil)
}

// TestHashURL はURLハッシュが決定的な64桁の16進文字列になることをテストする。
func TestHashURL(t *testing.T) {
	h1 := HashURL("https://example.com/article")
	h2 := HashURL("https://example.com/article")
	if h1 != h2 {
		t.Errorf("HashURL is not deterministic: %s != %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h1))
	}
	if h1 == HashURL("https://example.com/other") {
		t.Error("different URLs produced the same hash")
	}
}

// TestExplain_CacheHit はキャッシュヒット時にLLMが呼ばれないことをテストする。
func TestExplain_CacheHit(t *testing.T) {
	repo := &mockCacheRepo{
		findByHashFn: func(ctx context.Context, hash string) (*model.CacheEntry, error) {
			return &model.CacheEntry{URLHash: hash, Explanation: "cached text"}, nil
		},
	}
	gen := &mockGenerator{}
	svc := newTestService(repo, gen, &mockGuard{})

	text, cached, err := svc.Explain(context.Background(), Request{URL: "https://example.com/a"})
	if err != nil {
		t.Fatalf("Explain() returned error: %v", err)
	}
	if !cached {
		t.Error("expected cache hit")
	}
	if text != "cached text" {
		t.Errorf("expected cached text, got %q", text)
	}
	if gen.callCount != 0 {
		t.Errorf("generator should not be called on cache hit, called %d times", gen.callCount)
	}
}

// TestExplain_CacheMiss はキャッシュミス時にページ取得・生成・upsertが行われることをテストする。
func TestExplain_CacheMiss(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != browserUserAgent {
			t.Errorf("unexpected User-Agent: %s", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(`<html><head><script>var x=1</script></head><body><p>a fast JSON parser written in Rust</p></body></html>`))
	}))
	defer ts.Close()

	repo := &mockCacheRepo{}
	gen := &mockGenerator{}
	svc := newTestService(repo, gen, &mockGuard{})

	text, cached, err := svc.Explain(context.Background(), Request{URL: ts.URL, Category: "tool", Title: "fastjson"})
	if err != nil {
		t.Fatalf("Explain() returned error: %v", err)
	}
	if cached {
		t.Error("expected cache miss")
	}
	if text != "generated explanation" {
		t.Errorf("unexpected explanation: %q", text)
	}
	if gen.callCount != 1 {
		t.Fatalf("expected 1 generator call, got %d", gen.callCount)
	}
	if !strings.Contains(gen.lastUser, "a fast JSON parser written in Rust") {
		t.Errorf("user prompt should contain the extracted page text, got: %q", gen.lastUser)
	}
	if strings.Contains(gen.lastUser, "var x=1") {
		t.Error("user prompt should not contain script content")
	}
	if !strings.Contains(gen.lastSystem, "developer advocate") {
		t.Errorf("expected tool category system prompt, got: %q", gen.lastSystem)
	}

	if len(repo.upserted) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(repo.upserted))
	}
	if repo.upserted[0].URLHash != HashURL(ts.URL) {
		t.Errorf("upsert key mismatch: %s", repo.upserted[0].URLHash)
	}
	if repo.upserted[0].Explanation != "generated explanation" {
		t.Errorf("upsert explanation mismatch: %q", repo.upserted[0].Explanation)
	}
}

// TestExplain_FetchFailureFallsBackToTitle はページ取得失敗時にタイトルとURLのみで生成することをテストする。
func TestExplain_FetchFailureFallsBackToTitle(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	repo := &mockCacheRepo{}
	gen := &mockGenerator{}
	svc := newTestService(repo, gen, &mockGuard{})

	_, _, err := svc.Explain(context.Background(), Request{URL: ts.URL, Title: "some article"})
	if err != nil {
		t.Fatalf("Explain() returned error: %v", err)
	}
	if gen.callCount != 1 {
		t.Fatalf("expected 1 generator call, got %d", gen.callCount)
	}
	if !strings.Contains(gen.lastUser, "could not be retrieved") {
		t.Errorf("user prompt should note the missing page content, got: %q", gen.lastUser)
	}
	if !strings.Contains(gen.lastUser, "some article") {
		t.Errorf("user prompt should contain the title, got: %q", gen.lastUser)
	}
}

// TestExplain_InvalidURL は危険なURLが拒否されることをテストする。
func TestExplain_InvalidURL(t *testing.T) {
	repo := &mockCacheRepo{
		findByHashFn: func(ctx context.Context, hash string) (*model.CacheEntry, error) {
			t.Error("cache should not be consulted for an invalid URL")
			return nil, nil
		},
	}
	gen := &mockGenerator{}
	svc := newTestService(repo, gen, &mockGuard{validateErr: errors.New("blocked host")})

	_, _, err := svc.Explain(context.Background(), Request{URL: "http://169.254.169.254/"})
	if err == nil {
		t.Fatal("expected error for invalid URL")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "INVALID_URL" {
		t.Errorf("expected INVALID_URL APIError, got %v", err)
	}
	if gen.callCount != 0 {
		t.Error("generator should not be called for an invalid URL")
	}
}

// TestExplain_GeneratorError は生成失敗時にエラーが伝搬しキャッシュされないことをテストする。
func TestExplain_GeneratorError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>content</body></html>"))
	}))
	defer ts.Close()

	repo := &mockCacheRepo{}
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			return "", errors.New("all backends down")
		},
	}
	svc := newTestService(repo, gen, &mockGuard{})

	_, _, err := svc.Explain(context.Background(), Request{URL: ts.URL})
	if err == nil {
		t.Fatal("expected error when generation fails")
	}
	if len(repo.upserted) != 0 {
		t.Errorf("nothing should be cached on generation failure, got %d upserts", len(repo.upserted))
	}
}

// TestCategorySystemPrompt は未知カテゴリに汎用プロンプトが使われることをテストする。
func TestCategorySystemPrompt(t *testing.T) {
	if p := categorySystemPrompt("unknown"); !strings.Contains(p, "web page") {
		t.Errorf("unknown category should use the generic prompt, got: %q", p)
	}
	if p := categorySystemPrompt("News"); !strings.Contains(p, "journalist") {
		t.Errorf("category matching should be case-insensitive, got: %q", p)
	}
}
