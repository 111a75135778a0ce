package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
)

var (
	numberSetRe = regexp.MustCompile(`numberSet1_number[^>]*>\s*([0-9０-９]+)\s*<`)
	payoutRe    = regexp.MustCompile(`is-payout1[^>]*>([^<]*)<`)
)

// FetchResult scrapes the official result page. Returns ErrNotConcluded when
// the page exists but the exacta payout has not been posted yet.
func (c *Client) FetchResult(ctx context.Context, key models.RaceKey) (*models.Outcome, error) {
	p := raceParams{date: key.Date, venue: key.Venue, race: key.Race}

	html, err := c.fetchPage(ctx, c.pageURL("raceresult", p))
	if err != nil {
		return nil, fmt.Errorf("raceresult: %w", err)
	}

	out := parseResult(key, html)
	if out.ExactaCombo == "" {
		return nil, ErrNotConcluded
	}
	return out, nil
}

func parseResult(key models.RaceKey, html string) *models.Outcome {
	out := &models.Outcome{Key: key}

	for _, row := range strings.Split(html, "<tr") {
		text := cleanText(row)
		switch {
		case strings.Contains(text, "3連単"):
			if combo, payout, ok := parseResultRow(row, 3); ok {
				out.TrifectaCombo = combo
				out.TrifectaPayout = payout
			}
		case strings.Contains(text, "2連単"):
			if combo, payout, ok := parseResultRow(row, 2); ok {
				out.ExactaCombo = combo
				out.ExactaPayout = payout
			}
		case strings.Contains(text, "単勝"):
			nums := rowNumbers(row)
			if len(nums) >= 1 {
				out.WinBoat = nums[0]
			}
		}
	}
	return out
}

// parseResultRow extracts a finishing combination of n boats plus its payout
// from one result table row.
func parseResultRow(row string, n int) (string, int, bool) {
	nums := rowNumbers(row)
	if len(nums) < n {
		return "", 0, false
	}

	labels := make([]string, n)
	for i := 0; i < n; i++ {
		labels[i] = strconv.Itoa(nums[i])
	}
	combo := strings.Join(labels, "-")

	payout := 0
	if m := payoutRe.FindStringSubmatch(row); m != nil {
		digits := cleanText(m[1])
		if v, err := strconv.Atoi(digits); err == nil {
			payout = v
		}
	}
	return combo, payout, true
}

func rowNumbers(row string) []int {
	var nums []int
	for _, m := range numberSetRe.FindAllStringSubmatch(row, -1) {
		if v, err := strconv.Atoi(normalizeDigits(m[1])); err == nil {
			nums = append(nums, v)
		}
	}
	return nums
}

// normalizeDigits maps full-width digits to ASCII; the result page mixes both.
func normalizeDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '０' && r <= '９' {
			r = '0' + (r - '０')
		}
		b.WriteRune(r)
	}
	return b.String()
}
