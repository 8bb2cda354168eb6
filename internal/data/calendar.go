package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/aibisolutions/secretary/internal/biz/domain"
	"github.com/aibisolutions/secretary/internal/biz/repo"
)

const freeBusyURL = "https://www.googleapis.com/calendar/v3/freeBusy"

// Availability scoring for the near-term window
const (
	calendarScoreFree = 70
	calendarScoreBusy = 30
)

// calendarScorer scores owner availability from the Google Calendar
// free/busy endpoint. It looks at the next day: a mostly free window means
// scheduling questions can be answered confidently.
type calendarScorer struct {
	httpClient *http.Client
	calendarID string
	enabled    bool
}

// NewCalendarScorer builds a scorer backed by an offline-token oauth2
// client. With incomplete credentials the scorer reports unavailable.
func NewCalendarScorer(clientID, clientSecret, refreshToken, calendarID string) repo.SignalScorer {
	s := &calendarScorer{calendarID: calendarID}
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return s
	}

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: "https://oauth2.googleapis.com/token"},
		Scopes:       []string{"https://www.googleapis.com/auth/calendar.readonly"},
	}
	token := &oauth2.Token{RefreshToken: refreshToken}
	s.httpClient = cfg.Client(context.Background(), token)
	s.httpClient.Timeout = 15 * time.Second
	s.enabled = true
	return s
}

func (s *calendarScorer) Name() string {
	return domain.SourceCalendar
}

func (s *calendarScorer) Score(ctx context.Context, sc repo.SignalContext) (int, error) {
	if !s.enabled {
		return 0, repo.ErrSourceUnavailable
	}

	now := time.Now()
	reqBody, err := json.Marshal(map[string]any{
		"timeMin": now.Format(time.RFC3339),
		"timeMax": now.Add(24 * time.Hour).Format(time.RFC3339),
		"items":   []map[string]string{{"id": s.calendarID}},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: encode request: %v", repo.ErrSourceUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, freeBusyURL, bytes.NewReader(reqBody))
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %v", repo.ErrSourceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", repo.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: freebusy status %d", repo.ErrSourceUnavailable, resp.StatusCode)
	}

	var parsed struct {
		Calendars map[string]struct {
			Busy []struct {
				Start time.Time `json:"start"`
				End   time.Time `json:"end"`
			} `json:"busy"`
			Errors []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
		} `json:"calendars"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", repo.ErrSourceUnavailable, err)
	}

	cal, ok := parsed.Calendars[s.calendarID]
	if !ok || len(cal.Errors) > 0 {
		return 0, repo.ErrSourceUnavailable
	}

	// Three or more busy blocks in the next day means scheduling answers
	// are risky; otherwise the owner is reachable.
	if len(cal.Busy) >= 3 {
		return calendarScoreBusy, nil
	}
	return calendarScoreFree, nil
}
