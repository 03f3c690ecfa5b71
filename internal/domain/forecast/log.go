package forecast

import (
	"fmt"
	"strings"
)

// RenderLog formats a calculation for operator tooltips and audits:
//
//	WMA = (120 x 0.5) + (100 x 0.3) + (80 x 0.2) = 106 | Safety Stock 10% = 11 | Total = 117
//
// Consumers display this string verbatim; keep the format stable.
func RenderLog(c Calculation) string {
	terms := make([]string, 0, len(c.Weights))
	for i, w := range c.Weights {
		sold := 0
		if i < len(c.SalesHistory) {
			sold = c.SalesHistory[i]
		}
		terms = append(terms, fmt.Sprintf("(%d x %s)", sold, w.String()))
	}

	expr := "0"
	if len(terms) > 0 {
		expr = strings.Join(terms, " + ")
	}

	return fmt.Sprintf("WMA = %s = %d | Safety Stock %s%% = %d | Total = %d",
		expr, c.WMA, c.SafetyStockPercent.String(), c.SafetyStock, c.Total)
}
