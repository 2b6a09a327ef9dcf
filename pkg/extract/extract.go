// Package extract pulls Solana contract addresses out of scanner-bot
// embeds.
package extract

import (
	"regexp"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/platform"
)

// Backticked base58 run of Solana address length (32 byte keys encode
// to 32-44 characters).
var addressPattern = regexp.MustCompile("`([1-9A-HJ-NP-Za-km-z]{32,44})`")

// ContractAddress scans a message's embeds for a Solana contract
// address and reports whether one was found.
//
// An embed qualifies only when it has a description whose first line
// mentions "solana" (case-insensitive). Lines below the first are
// scanned bottom-up, since the scanner bot places the address near the
// end of the embed, and the first backticked base58 run of plausible
// length wins.
func ContractAddress(msg platform.Message) (string, bool) {
	for _, embed := range msg.Embeds {
		if embed.Description == "" {
			continue
		}

		lines := strings.Split(embed.Description, "\n")
		if !strings.Contains(strings.ToLower(lines[0]), "solana") {
			continue
		}

		for i := len(lines) - 1; i >= 1; i-- {
			for _, match := range addressPattern.FindAllStringSubmatch(lines[i], -1) {
				candidate := match[1]
				if _, err := base58.Decode(candidate); err != nil {
					continue
				}
				return candidate, true
			}
		}
	}

	return "", false
}
