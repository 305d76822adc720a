package inject

import (
	"strings"

	"lobbyswap/internal/resolve"
)

// SwapLabel builds the "<Skin> <Champion>" label the external swap
// tooling expects, without duplicating the champion name when the skin
// name already carries it as prefix, suffix or inner word.
func SwapLabel(skinName, championName string) string {
	base := strings.TrimSpace(strings.ReplaceAll(skinName, " ", " "))
	champ := strings.TrimSpace(strings.ReplaceAll(championName, " ", " "))
	if champ == "" {
		return base
	}

	if len(base) > len(champ) {
		if strings.EqualFold(base[:len(champ)], champ) && base[len(champ)] == ' ' {
			base = strings.TrimSpace(base[len(champ)+1:])
		} else if strings.EqualFold(base[len(base)-len(champ):], champ) && base[len(base)-len(champ)-1] == ' ' {
			base = strings.TrimSpace(base[:len(base)-len(champ)-1])
		}
	}

	// "K/DA ALL OUT Seraphine Indie" style: champion already inside.
	nc := resolve.Normalize(champ)
	for _, w := range strings.Fields(resolve.Normalize(base)) {
		if w == nc {
			return base
		}
	}
	if base == "" {
		return champ
	}
	return base + " " + champ
}
