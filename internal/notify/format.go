package notify

import (
	"fmt"
	"strings"

	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
)

// FormatPick builds the pick alert sent when a bet record is created.
func FormatPick(c *models.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 %s%dR 買い目通知\n", models.VenueName(c.Key.Venue), c.Key.Race)
	fmt.Fprintf(&b, "2連単: %s (確率 %.1f%%)\n", c.Combo, c.Confidence*100)
	fmt.Fprintf(&b, "本命: %d号艇 (%.1f%%)\n", c.BestBoat, c.BestBoatProb*100)
	if c.TimeToDeadline > 0 {
		fmt.Fprintf(&b, "締切まで %d分\n", int(c.TimeToDeadline.Minutes()))
	}
	if c.Commentary != "" {
		fmt.Fprintf(&b, "💬 %s", c.Commentary)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSettlement builds the win/loss message for one settled bet.
func FormatSettlement(bet *models.BetRecord, resultCombo string, profit int, isWin bool) string {
	head := "💀 外れ"
	if isWin {
		head = "🎊 的中"
	}
	return fmt.Sprintf("%s %s%dR\n予測:%s → 結果:%s\n収支:%s円",
		head, bet.VenueName, bet.Race, bet.Combo, resultCombo, signed(profit))
}

// FormatDailyReport builds the periodic summary for one operating day.
func FormatDailyReport(hour int, agg models.DailyAggregate) string {
	return fmt.Sprintf("**📊 %d時の収支報告**\n✅ 完了レース: %dR (的中: %d)\n⏳ 結果待ち: %dR\n💵 本日収支: %s円",
		hour, agg.Finished, agg.Wins, agg.Pending, signed(agg.Profit))
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}
