package assistant

import (
	"fmt"
	"strings"
)

// itemScanPrompt is shared by every provider that reads grocery receipts
const itemScanPrompt = `You are reading a grocery receipt or invoice for a restaurant kitchen. Carefully read all text in the image and list every food product that was bought.

For each product extract:
1. **Product Name**: the product as printed, expanded from abbreviations where obvious (e.g. "CHKN BRST" -> "Chicken Breast").
2. **Category**: one of Protein, Seafood, Produce, Dairy, Bakery, Pantry, Frozen, Beverage, Other.
3. **Quantity**: the number of units bought, as a number.
4. **Unit**: the unit of the quantity, such as kg, lb, pcs, L. Empty if not printed.
5. **Expiry Date**: a best estimate of when the product expires in ISO 8601 format (YYYY-MM-DD), based on the purchase date and typical shelf life. Use null if you cannot estimate it.

Return ONLY a valid JSON array in this exact format:
[
  {
    "product_name": "Chicken Breast",
    "category": "Protein",
    "quantity": 2,
    "unit": "kg",
    "expiry_date": "YYYY-MM-DD"
  }
]

Important:
- Do not include non-food lines such as tax, totals, bags or discounts
- The quantity must be a number (not a string)
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// BuildReportPrompt asks for a report in the layout the report parser
// understands best: expiring items by category, numbered recipes, then tips.
func BuildReportPrompt(req ReportRequest) string {
	var b strings.Builder

	b.WriteString("You are a chef assistant helping a restaurant use up stock before it spoils.\n")
	if req.Theme != "" {
		fmt.Fprintf(&b, "The restaurant theme is %s cuisine.\n", req.Theme)
	}
	fmt.Fprintf(&b, "These inventory items are expiring in the next %d days:\n", req.WindowDays)
	if len(req.Items) == 0 {
		b.WriteString("- (no items are expiring)\n")
	}
	for _, item := range req.Items {
		fmt.Fprintf(&b, "- %s (%s): %s %s, expires %s (%d days left)\n",
			item.ProductName, item.Category, formatQuantity(item.Quantity), item.Unit, item.ExpiryDate, item.DaysLeft)
	}

	b.WriteString(`
Write a short report in exactly this layout:

**<Category>:**
- <item> (<days left>)

## Recipe Suggestions:
**1. <Recipe Title>:**
- <step or ingredient>

## Additional Tips:
<storage or menu tips>

Group the expiring items by category. Suggest up to five recipes that use the expiring items and fit the theme. Keep every recipe under eight lines.`)

	return b.String()
}

func formatQuantity(q float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", q), "0"), ".")
}
