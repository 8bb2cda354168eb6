package data

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/aibisolutions/secretary/internal/biz/domain"
	"github.com/aibisolutions/secretary/internal/biz/repo"
)

// Price intent in the languages the studio's clients actually write in
var priceIntentRe = regexp.MustCompile(`(?i)price|cost|how much|quote|прайс|цена|сколько сто|ціна|вартість|скільки кошту`)

// priceListScorer scores whether a pricing question can be answered from
// the studio's own price list. It never does network I/O; the price list is
// read once at startup.
type priceListScorer struct {
	services []string
}

// NewPriceListScorer loads service names from the business data file. Lines
// holding a service look like "Logo design - 150 USD"; the part before the
// separator is the matchable name.
func NewPriceListScorer(businessDataPath string) repo.SignalScorer {
	s := &priceListScorer{}
	raw, err := os.ReadFile(businessDataPath)
	if err != nil {
		return s
	}
	for _, line := range strings.Split(string(raw), "\n") {
		name := serviceName(line)
		if name != "" {
			s.services = append(s.services, name)
		}
	}
	return s
}

func (s *priceListScorer) Name() string {
	return domain.SourcePrice
}

func (s *priceListScorer) Score(ctx context.Context, sc repo.SignalContext) (int, error) {
	if len(s.services) == 0 {
		return 0, repo.ErrSourceUnavailable
	}

	text := strings.ToLower(sc.Text)
	if !priceIntentRe.MatchString(text) {
		return 50, nil
	}

	for _, service := range s.services {
		if strings.Contains(text, service) {
			return 85, nil
		}
	}
	// Price intent without an exact service match: the list still covers
	// the general question.
	return 60, nil
}

// serviceName extracts the lowercased service name from a price list line,
// or empty when the line carries no price.
func serviceName(line string) string {
	for _, sep := range []string{" - ", " – ", ":"} {
		if idx := strings.Index(line, sep); idx > 0 {
			name := strings.ToLower(strings.TrimSpace(line[:idx]))
			rest := line[idx+len(sep):]
			if name != "" && strings.ContainsAny(rest, "0123456789") {
				return name
			}
		}
	}
	return ""
}
