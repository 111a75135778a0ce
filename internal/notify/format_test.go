package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
)

func TestFormatPick(t *testing.T) {
	cand := &models.Candidate{
		Key:            models.RaceKey{Date: "20260901", Venue: 12, Race: 7},
		Combo:          "1-2",
		Confidence:     0.553,
		BestBoat:       1,
		BestBoatProb:   0.812,
		Commentary:     "本命1号艇が盤石。",
		TimeToDeadline: 23 * time.Minute,
	}

	msg := FormatPick(cand)
	for _, want := range []string{"住之江7R", "1-2", "55.3%", "1号艇", "81.2%", "23分", "本命1号艇が盤石。"} {
		if !strings.Contains(msg, want) {
			t.Errorf("pick message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatPick_OmitsUnknownDeadlineAndCommentary(t *testing.T) {
	cand := &models.Candidate{
		Key:        models.RaceKey{Date: "20260901", Venue: 1, Race: 1},
		Combo:      "3-4",
		Confidence: 0.5,
		BestBoat:   3,
	}

	msg := FormatPick(cand)
	if strings.Contains(msg, "締切") {
		t.Errorf("unknown deadline should not be mentioned:\n%s", msg)
	}
	if strings.Contains(msg, "💬") {
		t.Errorf("empty commentary should not be mentioned:\n%s", msg)
	}
	if strings.HasSuffix(msg, "\n") {
		t.Error("message should not end with a newline")
	}
}

func TestFormatSettlement(t *testing.T) {
	bet := &models.BetRecord{VenueName: "住之江", Race: 7, Combo: "1-2"}

	win := FormatSettlement(bet, "1-2", 540, true)
	for _, want := range []string{"🎊 的中", "住之江7R", "予測:1-2", "結果:1-2", "+540円"} {
		if !strings.Contains(win, want) {
			t.Errorf("win message missing %q:\n%s", want, win)
		}
	}

	loss := FormatSettlement(bet, "3-1", -1000, false)
	for _, want := range []string{"💀 外れ", "結果:3-1", "-1000円"} {
		if !strings.Contains(loss, want) {
			t.Errorf("loss message missing %q:\n%s", want, loss)
		}
	}
}

func TestFormatDailyReport(t *testing.T) {
	agg := models.DailyAggregate{Finished: 8, Wins: 3, Pending: 2, Profit: 4200}

	msg := FormatDailyReport(18, agg)
	for _, want := range []string{"18時", "8R", "的中: 3", "2R", "+4200円"} {
		if !strings.Contains(msg, want) {
			t.Errorf("report missing %q:\n%s", want, msg)
		}
	}

	down := FormatDailyReport(13, models.DailyAggregate{Finished: 4, Profit: -2500})
	if !strings.Contains(down, "-2500円") {
		t.Errorf("negative profit should stay signed:\n%s", down)
	}
}

func TestSigned(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{540, "+540"},
		{0, "0"},
		{-1000, "-1000"},
	}
	for _, tt := range tests {
		if got := signed(tt.in); got != tt.want {
			t.Errorf("signed(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
