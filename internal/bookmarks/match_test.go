package bookmarks

import (
	"testing"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		note           string
		url            string
		expectPositive bool
	}{
		{name: "exact note", query: "chatgpt", note: "ChatGPT", url: "https://chat.openai.com", expectPositive: true},
		{name: "prefix", query: "chat", note: "ChatGPT", url: "https://x.test", expectPositive: true},
		{name: "substring", query: "gpt", note: "ChatGPT", url: "https://x.test", expectPositive: true},
		{name: "url host", query: "github", note: "code", url: "https://github.com/MrSnakeDoc", expectPositive: true},
		{name: "multi-word any order", query: "hub docker", note: "Docker Hub", url: "https://x.test", expectPositive: true},
		{name: "no match", query: "xyz", note: "ChatGPT", url: "https://x.test", expectPositive: false},
		{name: "short fuzzy query ignored", query: "qz", note: "quiz", url: "https://x.test", expectPositive: false},
		{name: "empty query", query: "  ", note: "ChatGPT", url: "https://x.test", expectPositive: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(tt.query, domain.Bookmark{Note: tt.note, URL: tt.url})
			if tt.expectPositive && score <= 0 {
				t.Errorf("Score() = %v, expected positive", score)
			}
			if !tt.expectPositive && score > 0 {
				t.Errorf("Score() = %v, expected zero", score)
			}
		})
	}
}

func TestScoreRanking(t *testing.T) {
	exact := Score("docs", domain.Bookmark{Note: "docs", URL: "https://x.test"})
	prefix := Score("docs", domain.Bookmark{Note: "docs site", URL: "https://x.test"})
	substring := Score("docs", domain.Bookmark{Note: "go docs", URL: "https://x.test"})

	if !(exact > prefix && prefix > substring) {
		t.Errorf("expected exact > prefix > substring, got %v, %v, %v", exact, prefix, substring)
	}
}

func TestFilter(t *testing.T) {
	list := []domain.Bookmark{
		{ID: "1", Note: "Go blog", URL: "https://go.dev/blog"},
		{ID: "2", Note: "recipes", URL: "https://cooking.test"},
		{ID: "3", Note: "Go playground", URL: "https://go.dev/play"},
	}

	got := Filter(list, "go")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Errorf("Filter() = %+v", got)
	}

	if len(Filter(list, "")) != len(list) {
		t.Error("empty query should keep every bookmark")
	}
}
