package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aibisolutions/secretary/internal/biz/domain"
	"github.com/aibisolutions/secretary/internal/biz/repo"
)

const trelloBaseURL = "https://api.trello.com/1"

// trelloScorer scores how strongly the conversation relates to tracked
// work. Each board card whose name or description overlaps the
// conversation raises the score; high priority labels add a bonus.
type trelloScorer struct {
	httpClient *http.Client
	apiKey     string
	token      string
	boardID    string
	enabled    bool
}

// NewTrelloScorer builds a board-backed scorer. With incomplete
// credentials the scorer reports unavailable.
func NewTrelloScorer(apiKey, token, boardID string) repo.SignalScorer {
	s := &trelloScorer{
		apiKey:  apiKey,
		token:   token,
		boardID: boardID,
	}
	if apiKey != "" && token != "" && boardID != "" {
		s.httpClient = &http.Client{Timeout: 15 * time.Second}
		s.enabled = true
	}
	return s
}

func (s *trelloScorer) Name() string {
	return domain.SourceTrello
}

type trelloCard struct {
	Name   string `json:"name"`
	Desc   string `json:"desc"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

func (s *trelloScorer) Score(ctx context.Context, sc repo.SignalContext) (int, error) {
	if !s.enabled {
		return 0, repo.ErrSourceUnavailable
	}

	cards, err := s.fetchCards(ctx)
	if err != nil {
		return 0, err
	}
	if len(cards) == 0 {
		return 50, nil
	}

	text := matchText(sc)
	matches := 0
	highPriority := false
	for _, card := range cards {
		if !cardMatches(card, text) {
			continue
		}
		matches++
		for _, label := range card.Labels {
			name := strings.ToLower(label.Name)
			if strings.Contains(name, "high") || strings.Contains(name, "urgent") {
				highPriority = true
			}
		}
	}
	if matches == 0 {
		return 50, nil
	}

	score := 50 + 5*matches
	if score > 70 {
		score = 70
	}
	if highPriority {
		score += 5
	}
	if score > 85 {
		score = 85
	}
	return score, nil
}

func (s *trelloScorer) fetchCards(ctx context.Context) ([]trelloCard, error) {
	q := url.Values{}
	q.Set("key", s.apiKey)
	q.Set("token", s.token)
	q.Set("fields", "name,desc,labels")

	endpoint := fmt.Sprintf("%s/boards/%s/cards?%s", trelloBaseURL, url.PathEscape(s.boardID), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", repo.ErrSourceUnavailable, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repo.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: board cards status %d", repo.ErrSourceUnavailable, resp.StatusCode)
	}

	var cards []trelloCard
	if err := json.NewDecoder(resp.Body).Decode(&cards); err != nil {
		return nil, fmt.Errorf("%w: decode cards: %v", repo.ErrSourceUnavailable, err)
	}
	return cards, nil
}

// matchText builds the haystack cards are matched against. The chat title
// is included because boards often name cards after the client.
func matchText(sc repo.SignalContext) string {
	return strings.ToLower(sc.ChatTitle + " " + sc.Text + " " + sc.Report)
}

// cardMatches checks whether any meaningful word of the card name appears
// in the conversation text
func cardMatches(card trelloCard, text string) bool {
	for _, word := range strings.Fields(strings.ToLower(card.Name)) {
		if len(word) < 4 {
			continue
		}
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
