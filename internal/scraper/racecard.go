package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
)

// FetchRaceCard scrapes the pre-race pages (racelist + beforeinfo) and builds
// the feature record for one race. Fields that cannot be extracted keep
// their documented defaults; only a missing page is an error.
func (c *Client) FetchRaceCard(ctx context.Context, key models.RaceKey) (*models.RaceRecord, error) {
	p := raceParams{date: key.Date, venue: key.Venue, race: key.Race}

	beforeHTML, err := c.fetchPage(ctx, c.pageURL("beforeinfo", p))
	if err != nil {
		return nil, fmt.Errorf("beforeinfo: %w", err)
	}
	listHTML, err := c.fetchPage(ctx, c.pageURL("racelist", p))
	if err != nil {
		return nil, fmt.Errorf("racelist: %w", err)
	}

	return parseRaceCard(key, beforeHTML, listHTML), nil
}

var (
	tagRe      = regexp.MustCompile(`<[^>]*>`)
	windRe     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*m`)
	timeRe     = regexp.MustCompile(`(\d{1,2}:\d{2})`)
	decimal2Re = regexp.MustCompile(`(\d\.\d{2})`)
	stRe       = regexp.MustCompile(`(\.\d{2}|\d\.\d{2})`)
	falseRe    = regexp.MustCompile(`F(\d+)`)
	motorRe    = regexp.MustCompile(`(\d{1,3}\.\d{2})`)
)

func parseRaceCard(key models.RaceKey, beforeHTML, listHTML string) *models.RaceRecord {
	rec := models.NewRaceRecord(key)

	if wind, ok := parseWind(beforeHTML); ok {
		rec.Wind = wind
	}
	if deadline, ok := parseDeadline(listHTML, key); ok {
		rec.Deadline = deadline
	}

	for boat := 1; boat <= models.BoatCount; boat++ {
		if ex, ok := parseExhibition(beforeHTML, boat); ok {
			rec.Boats[boat-1].ExhibitionTime = ex
		}
		parseBoatStats(listHTML, boat, &rec.Boats[boat-1])
	}
	return rec
}

// cleanText strips tags and entities and collapses whitespace, roughly what
// the page text looks like in a browser.
func cleanText(html string) string {
	s := tagRe.ReplaceAllString(html, " ")
	s = strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "¥", "", ",", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// tdTexts returns the cleaned text of each <td> in an HTML fragment.
func tdTexts(fragment string) []string {
	var cells []string
	parts := strings.Split(fragment, "<td")
	for _, part := range parts[1:] {
		if end := strings.Index(part, "</td>"); end >= 0 {
			part = part[:end]
		}
		// Drop the remainder of the opening tag.
		if gt := strings.Index(part, ">"); gt >= 0 {
			part = part[gt+1:]
		}
		cells = append(cells, cleanText(part))
	}
	return cells
}

// boatSection returns the <tbody> fragment for one boat's row group.
func boatSection(html string, boat int) (string, bool) {
	marker := fmt.Sprintf("is-boatColor%d", boat)
	for _, chunk := range strings.Split(html, "<tbody") {
		if strings.Contains(chunk, marker) {
			return chunk, true
		}
	}
	return "", false
}

func parseWind(beforeHTML string) (float64, bool) {
	idx := strings.Index(beforeHTML, "weather1_bodyUnitLabelData")
	if idx < 0 {
		return 0, false
	}
	window := beforeHTML[idx:]
	if len(window) > 300 {
		window = window[:300]
	}
	m := windRe.FindStringSubmatch(cleanText(window))
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseDeadline finds the 締切予定時刻 row and picks the cell for this race
// number. The row lists one time per race, so the Nth time is race N's
// deadline. Returns false when the row is missing, which keeps the time
// gate fail-open.
func parseDeadline(listHTML string, key models.RaceKey) (time.Time, bool) {
	idx := strings.Index(listHTML, "締切予定時刻")
	if idx < 0 {
		return time.Time{}, false
	}
	row := listHTML[idx:]
	if end := strings.Index(row, "</tr>"); end >= 0 {
		row = row[:end]
	}
	times := timeRe.FindAllString(cleanText(row), -1)
	if len(times) < key.Race {
		return time.Time{}, false
	}
	hm := times[key.Race-1]

	day, err := time.ParseInLocation("20060102 15:04", key.Date+" "+hm, models.JST)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

func parseExhibition(beforeHTML string, boat int) (float64, bool) {
	section, ok := boatSection(beforeHTML, boat)
	if !ok {
		return 0, false
	}
	cells := tdTexts(section)
	if len(cells) < 5 {
		return 0, false
	}
	m := decimal2Re.FindStringSubmatch(cells[4])
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseBoatStats fills win rate, start timing, false starts and motor rate
// from the racelist row group. Missing pieces keep the defaults already in f.
func parseBoatStats(listHTML string, boat int, f *models.BoatFeatures) {
	section, ok := boatSection(listHTML, boat)
	if !ok {
		return
	}
	cells := tdTexts(section)

	// F count and average ST share a cell.
	if len(cells) > 3 {
		if m := falseRe.FindStringSubmatch(cells[3]); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				f.FalseStarts = n
			}
		}
		if m := stRe.FindStringSubmatch(cells[3]); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 && v < 1.0 {
				f.StartTiming = v
			}
		}
	}

	if len(cells) > 4 {
		if v, ok := extractWinRate(cells[4]); ok {
			f.WinRate = v
		}
	}

	// Motor second-place rate: first percentage above 10.
	if len(cells) > 6 {
		for _, m := range motorRe.FindAllString(cells[6], -1) {
			if v, err := strconv.ParseFloat(m, 64); err == nil && v > 10.0 {
				f.MotorRate = v
				break
			}
		}
	}
}

// extractWinRate picks the first plausible national win rate out of a cell
// that mixes several numbers. Rates live in 1.50-9.99.
func extractWinRate(text string) (float64, bool) {
	for _, m := range decimal2Re.FindAllString(text, -1) {
		v, err := strconv.ParseFloat(m, 64)
		if err == nil && v >= 1.5 && v <= 9.99 {
			return v, true
		}
	}
	return 0, false
}
