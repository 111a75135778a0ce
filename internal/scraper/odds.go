package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
)

var oddsPointRe = regexp.MustCompile(`oddsPoint[^>]*>([^<]*)<`)

// FetchOdds scrapes the live exacta odds for one combination from the
// odds2tf page. The odds table is laid out row-major with one column per
// leading boat and five rows listing the remaining boats in ascending order,
// which gives a fixed cell index per combination.
func (c *Client) FetchOdds(ctx context.Context, key models.RaceKey, first, second int) (float64, error) {
	p := raceParams{date: key.Date, venue: key.Venue, race: key.Race}

	html, err := c.fetchPage(ctx, c.pageURL("odds2tf", p))
	if err != nil {
		return 0, fmt.Errorf("odds2tf: %w", err)
	}

	cells := oddsPointRe.FindAllStringSubmatch(html, -1)
	if len(cells) < models.ExactaCount {
		return 0, fmt.Errorf("odds2tf: expected %d odds cells, got %d", models.ExactaCount, len(cells))
	}

	row := second - 1
	if second > first {
		row = second - 2
	}
	idx := row*models.BoatCount + (first - 1)

	text := cleanText(cells[idx][1])
	odds, err := strconv.ParseFloat(text, 64)
	if err != nil {
		// Suspended combination or odds not open yet.
		return 0, fmt.Errorf("odds2tf: unparsable odds %q for %d-%d", text, first, second)
	}
	return odds, nil
}
