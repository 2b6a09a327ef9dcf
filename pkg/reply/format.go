// Package reply renders bundle reports into the bot's reply content.
package reply

import (
	"fmt"
	"strings"

	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/platform"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/trench"
)

const (
	embedColor    = 0x3498DB
	footerText    = "Powered by trench.bot • Made by blankxbt"
	footerIconURL = "https://cdn.discordapp.com/app-icons/1334376887421505560/7e1949a152920d6b50f1020e771b193d.png?size=256"

	warningSeparator = " • "
)

var riskLevelEmoji = map[string]string{
	"LOW":    "✅",
	"MEDIUM": "⚠️",
	"HIGH":   "🚨",
}

// Format builds the populated reply for a bundle report. pageURL is the
// human-facing bundle page used as the title link.
//
// An unrecognized creator risk level is an error: a malformed report
// must surface as a recoverable failure, not a half-rendered reply.
func Format(report *trench.BundleReport, pageURL string) (platform.ReplyContent, error) {
	if report == nil {
		return platform.ReplyContent{}, fmt.Errorf("nil bundle report")
	}

	riskEmoji, ok := riskLevelEmoji[report.CreatorAnalysis.RiskLevel]
	if !ok {
		return platform.ReplyContent{}, fmt.Errorf("unknown creator risk level %q", report.CreatorAnalysis.RiskLevel)
	}

	held := fmt.Sprintf("%s Currently Held Bundles: **%.2f%%**",
		holdingEmoji(report.TotalHoldingPercentage), report.TotalHoldingPercentage)

	initial := fmt.Sprintf("📦 %d bundles, **%.1f%%** with **%.2f** SOL",
		report.TotalBundles, report.TotalPercentageBundled, report.TotalSOLSpent)

	creator := fmt.Sprintf("%s Risk Level: %s", riskEmoji, report.CreatorAnalysis.RiskLevel)
	if warnings := joinWarnings(report.CreatorAnalysis.WarningFlags); warnings != "" {
		creator += "\n⚠️ Warnings: " + warnings
	}

	embed := &platform.Embed{
		Color: embedColor,
		Fields: []platform.EmbedField{
			{Name: "Current Bundles", Value: held},
			{Name: "Initial Bundles", Value: initial},
			{Name: "Creator Info", Value: creator},
		},
		FooterText:    footerText,
		FooterIconURL: footerIconURL,
	}

	title := fmt.Sprintf("[**Trench.bot Analysis: %s**](%s)", report.Ticker, pageURL)

	return platform.ReplyContent{Content: title, Embed: embed}, nil
}

// holdingEmoji maps the currently-held bundle percentage to a
// three-tier risk marker.
func holdingEmoji(percentage float64) string {
	switch {
	case percentage < 3:
		return "✅"
	case percentage < 10:
		return "⚠️"
	default:
		return "🚨"
	}
}

// joinWarnings joins the non-null creator warning flags, returning ""
// when nothing remains.
func joinWarnings(flags []*string) string {
	kept := make([]string, 0, len(flags))
	for _, flag := range flags {
		if flag == nil || *flag == "" {
			continue
		}
		kept = append(kept, *flag)
	}

	return strings.Join(kept, warningSeparator)
}
