package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// JST is the operating timezone. All venues run on Japan time and the last
// race closes before midnight, so the operating day is simply the JST date.
var JST = time.FixedZone("JST", 9*60*60)

// OperatingDay returns the YYYYMMDD date string for t in JST.
func OperatingDay(t time.Time) string {
	return t.In(JST).Format("20060102")
}

// RaceKey identifies one race: operating day, venue (jcd 1..24) and race number (1..12).
type RaceKey struct {
	Date  string // YYYYMMDD
	Venue int
	Race  int
}

// String builds the stable race id used as the storage primary key,
// format: YYYYMMDD_JCD_RNO (e.g. "20260901_12_7").
func (k RaceKey) String() string {
	return fmt.Sprintf("%s_%d_%d", k.Date, k.Venue, k.Race)
}

// ParseRaceKey restores a RaceKey from its string id.
func ParseRaceKey(id string) (RaceKey, error) {
	parts := strings.Split(id, "_")
	if len(parts) != 3 {
		return RaceKey{}, fmt.Errorf("invalid race id %q", id)
	}
	venue, err := strconv.Atoi(parts[1])
	if err != nil {
		return RaceKey{}, fmt.Errorf("invalid venue in race id %q: %w", id, err)
	}
	race, err := strconv.Atoi(parts[2])
	if err != nil {
		return RaceKey{}, fmt.Errorf("invalid race number in race id %q: %w", id, err)
	}
	if len(parts[0]) != 8 {
		return RaceKey{}, fmt.Errorf("invalid date in race id %q", id)
	}
	return RaceKey{Date: parts[0], Venue: venue, Race: race}, nil
}

var venueNames = map[int]string{
	1: "桐生", 2: "戸田", 3: "江戸川", 4: "平和島", 5: "多摩川", 6: "浜名湖",
	7: "蒲郡", 8: "常滑", 9: "津", 10: "三国", 11: "びわこ", 12: "住之江",
	13: "尼崎", 14: "鳴門", 15: "丸亀", 16: "児島", 17: "宮島", 18: "徳山",
	19: "下関", 20: "若松", 21: "芦屋", 22: "福岡", 23: "唐津", 24: "大村",
}

// VenueName returns the official venue name for a jcd code.
func VenueName(venue int) string {
	if name, ok := venueNames[venue]; ok {
		return name
	}
	return fmt.Sprintf("会場%d", venue)
}
