package analysis

import "strings"

// Summary is the closing narrative shown after the individual analyses.
type Summary struct {
	Insights        map[string][]string `json:"insights"`
	Recommendations []string            `json:"recommendations"`
	Takeaway        string              `json:"takeaway"`
}

var summaryOrder = []string{"Income & Product Category", "Reviews", "Tax Levels"}

// FinalSummary returns the curated conclusions across all analyses.
func FinalSummary() Summary {
	return Summary{
		Insights: map[string][]string{
			"Income & Product Category": {
				"Very High income customers show the highest return rates, especially for Bags and Home & Kitchen.",
				"Medium and Very High income groups contribute noticeably to Bags return rates.",
			},
			"Reviews": {
				"Low satisfaction customers drive high return rates: up to 59% for Women's Bags, 55% for Clothing, 52% for Footwear.",
				"High satisfaction customers have minimal returns (~3%), showing the importance of quality and fit.",
			},
			"Tax Levels": {
				"Mobiles under High tax show 24% return rate. Women's products and Furnishing/Kitchen also show elevated returns under high tax levels.",
			},
		},
		Recommendations: []string{
			"Focus on Women's Bags: fix the 59% return rate for low satisfaction by improving quality and fit. Add clear size guides and let customers try before buying.",
			"Improve Women's Clothing and Footwear: cut the 55% and 52% returns for low satisfaction with better designs and easy return options. Offer fit advice in stores.",
			"Boost Women's Home and Kitchen: lower the 50% return rate for low satisfaction by checking product quality and giving simple use instructions.",
			"Help with Mobiles: reduce the 24% return rate for low satisfaction in Electronics by offering strong warranties and quick tech support.",
			"Target High Tax and Income Issues: for items like Mobiles (24% at high tax) and Bags (20% for Very High income), test lower taxes or discounts to keep customers happy.",
			"Use Happy Customers: learn from the 3% return rate with high satisfaction and share good designs and service tips across all products.",
			"Start a Big Test: run a pilot program with fit checks, surveys, and better support for low-satisfaction customers, especially for Women's products and high-tax items.",
			"Collect Data on Returned Products: gather info from all returned items using surveys, logs, or feedback forms, then fix the common causes (sizing, damage, unmet expectations, shipping).",
		},
		Takeaway: "Returns are driven by product quality, fit, customer satisfaction, and high tax or income-sensitive items. " +
			"Reducing returns requires proactive quality control, better sizing guides, improved support, and targeted promotions for high-risk segments.",
	}
}

// Markdown renders the summary in report form.
func (s Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[FINAL SUMMARY]\n")
	for _, k := range summaryOrder {
		items := s.Insights[k]
		if len(items) == 0 {
			continue
		}
		b.WriteString("- " + k + ":\n")
		for _, it := range items {
			b.WriteString("  • " + it + "\n")
		}
	}
	writeList(&b, "ACTION PLAN", s.Recommendations)
	b.WriteString("\n[KEY TAKEAWAY]\n")
	b.WriteString(s.Takeaway + "\n")
	return b.String()
}
