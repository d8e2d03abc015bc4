package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/legalcrawl/internal/fetcher"
	"github.com/sells-group/legalcrawl/internal/model"
)

// --- Fetcher Mock ---

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) CrawlInfo(ctx context.Context) (*fetcher.Crawl, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fetcher.Crawl), args.Error(1)
}

func (m *mockFetcher) Download(ctx context.Context, archivePath string) (string, error) {
	args := m.Called(ctx, archivePath)
	return args.String(0), args.Error(1)
}

// --- Analyzer Mock ---

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) AnalyzeDocument(ctx context.Context, cleanText, url string) (model.Analysis, int) {
	args := m.Called(ctx, cleanText, url)
	return args.Get(0).(model.Analysis), args.Int(1)
}
