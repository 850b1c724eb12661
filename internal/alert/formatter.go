package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/stats"
)

// FormatFrozenRound formats the page sent when the engine freezes a round.
func FormatFrozenRound(reason string) string {
	var b strings.Builder
	b.WriteString("🚨 <b>Round frozen</b>\n\n")
	b.WriteString(fmt.Sprintf("Reason: %s\n", reason))
	b.WriteString(fmt.Sprintf("Time: %s\n", time.Now().UTC().Format("2006-01-02 15:04:05")))
	b.WriteString("\nThe engine has stopped starting new rounds. Manual intervention required.")
	return b.String()
}

// FormatDailySummary formats the daily house report from the stats window.
func FormatDailySummary(sum stats.Summary, recent []float64) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Daily summary</b> | %s\n\n", time.Now().UTC().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Rounds: %d\n", sum.Rounds))
	b.WriteString(fmt.Sprintf("Mean crash: %.2fx | Median: %.2fx | Max: %.2fx\n", sum.MeanCrash, sum.MedianCrash, sum.MaxCrash))
	b.WriteString(fmt.Sprintf("Below 1.50x: %.1f%%\n\n", sum.ShareBelow150*100))

	wagered, _ := sum.WageredUSD.Float64()
	paid, _ := sum.PaidOutUSD.Float64()
	b.WriteString(fmt.Sprintf("Wagered: $%s\n", humanize.CommafWithDigits(wagered, 2)))
	b.WriteString(fmt.Sprintf("Paid out: $%s\n", humanize.CommafWithDigits(paid, 2)))
	b.WriteString(fmt.Sprintf("RTP: %.1f%%\n", sum.RTP*100))

	if len(recent) > 0 {
		b.WriteString("\nRecent crashes: ")
		parts := make([]string, 0, len(recent))
		for _, c := range recent {
			parts = append(parts, fmt.Sprintf("%.2fx", c))
		}
		b.WriteString(strings.Join(parts, ", "))
	}
	return b.String()
}

// FormatRoundStatus formats the reply to the /round operator command.
func FormatRoundStatus(phase, roundID, commitment string, multiplier float64, betCount int) string {
	var b strings.Builder
	b.WriteString("🎲 <b>Current round</b>\n\n")
	b.WriteString(fmt.Sprintf("Phase: %s\n", phase))
	b.WriteString(fmt.Sprintf("Round: %s\n", roundID))
	b.WriteString(fmt.Sprintf("Commitment: %s\n", commitment))
	b.WriteString(fmt.Sprintf("Multiplier: %.2fx\n", multiplier))
	b.WriteString(fmt.Sprintf("Bets: %d\n", betCount))
	return b.String()
}
