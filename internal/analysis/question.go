package analysis

import (
	"github.com/KaramelBytes/returnlens-cli/internal/derive"
	"github.com/KaramelBytes/returnlens-cli/internal/schema"
)

// Kind separates single-factor questions from interaction questions.
type Kind string

const (
	Univariate   Kind = "univariate"
	Multivariate Kind = "multivariate"
)

// ChartKind describes how a result is plotted.
type ChartKind string

const (
	ChartBar        ChartKind = "bar"
	ChartGroupedBar ChartKind = "grouped_bar"
	ChartLine       ChartKind = "line"
	ChartHeatmap    ChartKind = "heatmap"
)

// Key is one grouping dimension: a raw field or a derived column.
type Key struct {
	Label   string
	Field   schema.Field
	Derived string
}

// Question is one entry of the analysis catalog.
type Question struct {
	ID     string
	Number int
	Kind   Kind
	// Prompt is the question as asked; Title heads charts and reports.
	Prompt string
	Title  string
	Keys   []Key
	// WomenOnly restricts rows to subcategories mentioning women.
	WomenOnly bool
	// SortByRate orders groups by descending return rate instead of by key.
	SortByRate bool
	// Percent displays rates on a 0-100 scale.
	Percent bool
	Chart   ChartKind
	// XKey is the key plotted on the x axis for multi-key charts; the other
	// key becomes the series.
	XKey            int
	Export          string
	Insights        []string
	Recommendations []string
}

func fieldKey(label string, f schema.Field) Key { return Key{Label: label, Field: f} }

func derivedKey(label, col string) Key { return Key{Label: label, Derived: col} }

var catalog = []Question{
	{
		ID: "payment", Number: 1, Kind: Univariate,
		Prompt: "Does Payment_mode affect the return rate?",
		Title:  "Return Rate by Payment Mode",
		Keys:   []Key{fieldKey("Payment Mode", schema.PaymentMode)},
		Chart:  ChartBar, Export: "return_by_payment.csv",
		Insights: []string{
			"The effect of payment mode on returns seems weak because the differences are small (only about 2% between Credit Card and others).",
		},
	},
	{
		ID: "store", Number: 2, Kind: Univariate,
		Prompt: "Does the Store_type influence returns?",
		Title:  "Return Rate by Store Type",
		Keys:   []Key{fieldKey("Store Type", schema.StoreType)},
		Chart:  ChartBar, Export: "return_by_store.csv",
	},
	{
		ID: "income", Number: 3, Kind: Univariate,
		Prompt: "Does Income level influence return behavior?",
		Title:  "Return Rate by Income Level",
		Keys:   []Key{derivedKey("Income Level", derive.IncomeCategoryColumn)},
		Chart:  ChartBar, Export: "return_by_income.csv",
		Insights: []string{
			"Very High income level has the highest return rate at 0.14 (14% returned), much higher than the others.",
			"The effect of income on returns is strong because Very High income people return a lot more than others.",
		},
		Recommendations: []string{
			"Focus on why Very High income customers return items, maybe they buy expensive things and change their minds.",
			"Check if product quality or store service needs improvement for high-income shoppers.",
		},
	},
	{
		ID: "category", Number: 4, Kind: Univariate,
		Prompt:     "What is Return Rate of products in each Category?",
		Title:      "Return Rate of products in each Category",
		Keys:       []Key{fieldKey("Product Category", schema.ProductCategory), fieldKey("Product Subcategory", schema.ProductSubcategory)},
		SortByRate: true,
		Chart:      ChartBar, Export: "return_by_category.csv",
		Insights: []string{
			"In the Bags, Footwear, and Clothing categories, Women's products have a high return rate above 17%, much higher than Men's products, suggesting a specific issue with women's items.",
			"In the Home and Kitchen category, Kitchen and Furnishing subcategories show significant returns at 15-16%, indicating potential problems in these areas.",
			"In the Electronics category, Mobiles have a notable return rate of 14%, pointing to possible quality or usability concerns.",
			"In the Books category, DIY stands out with a 12% return rate, higher than other subcategories, suggesting an area needing attention.",
			"The effect of gender and subcategory on returns is strong, with women's products and specific subcategories like Kitchen, Furnishing, Mobiles, and DIY driving higher return rates.",
		},
		Recommendations: []string{
			"For Bags, Footwear, and Clothing, investigate why Women's products exceed 17% returns: check for sizing issues, fit problems, or quality defects, and improve product design or provide better fitting guides.",
			"For Electronics, address Mobiles' 14% return rate with better quality control, improved warranties, or customer support for technical issues.",
			"Collect customer feedback during the trial month to understand why they are returning products (e.g., wrong size or poor quality) and use the results to improve the products.",
		},
	},
	{
		ID: "reviews", Number: 5, Kind: Univariate,
		Prompt:     "How does Reviews (customer satisfaction) relate to Return?",
		Title:      "Return Rate by Customer Satisfaction Level",
		Keys:       []Key{derivedKey("Review Level", derive.ReviewLevelColumn)},
		SortByRate: true,
		Chart:      ChartBar, Export: "review_return.csv",
		Insights: []string{
			"Low satisfaction level has the highest return rate at 0.43 (43% returned), much higher than the average.",
			"The effect of satisfaction level on returns is strong because low satisfaction leads to a lot more returns than high or medium.",
		},
		Recommendations: []string{
			"Focus on improving satisfaction for customers with low reviews to reduce returns.",
		},
	},
	{
		ID: "tax", Number: 6, Kind: Univariate,
		Prompt:     "Does Tax amount (Low/Medium/High) influence returns?",
		Title:      "Return Rate by Tax Level (%)",
		Keys:       []Key{derivedKey("Tax Level", derive.TaxLevelColumn)},
		SortByRate: true, Percent: true,
		Chart: ChartBar, Export: "tax_return.csv",
	},
	{
		ID: "women-reviews", Number: 1, Kind: Multivariate,
		Prompt:    "Combined effect of Review_Level on returns for Women's products (Clothing & Footwear)",
		Title:     "Return Rates by Review Level for Women's subcategories",
		Keys:      []Key{fieldKey("Product Subcategory", schema.ProductSubcategory), derivedKey("Review Level", derive.ReviewLevelColumn)},
		WomenOnly: true,
		Chart:     ChartGroupedBar, XKey: 1, Export: "women_return_by_review.csv",
		Insights: []string{
			"The relationship between Reviews and Return is strong across categories, especially for Women's products, where low satisfaction significantly increases return rates.",
		},
		Recommendations: []string{
			"Focus on addressing the 59% return rate for Women's Clothing and Footwear under low satisfaction by improving product quality, fit accuracy, or expectation alignment.",
		},
	},
	{
		ID: "category-reviews", Number: 2, Kind: Multivariate,
		Prompt: "Effect of Reviews on Return across Product Categories",
		Title:  "Effect of Customer Review Level on Return Rate by Category",
		Keys:   []Key{fieldKey("Product Category", schema.ProductCategory), derivedKey("Review Level", derive.ReviewLevelColumn)},
		Chart:  ChartLine, XKey: 1, Export: "review_return_by_category.csv",
		Insights: []string{
			"The relationship between Reviews and Return is strong across categories, especially for Women's products, where low satisfaction significantly increases return rates.",
		},
		Recommendations: []string{
			"Focus on addressing the 59% return rate for Women's Clothing and Footwear under low satisfaction by improving product quality, fit accuracy, or expectation alignment.",
		},
	},
	{
		ID: "income-category", Number: 3, Kind: Multivariate,
		Prompt: "Interaction of Income_Level and Product Category on return rates",
		Title:  "Return Rate by Income Level and Product Category",
		Keys:   []Key{derivedKey("Income Level", derive.IncomeCategoryColumn), fieldKey("Product Category", schema.ProductCategory)},
		Chart:  ChartHeatmap, XKey: 0, Export: "income_category_return.csv",
		Insights: []string{
			"Very High income customers drive the highest return rates, particularly for Bags (up to 20%) and Home and Kitchen (18-20%), indicating their significant influence on returns.",
			"Bags show elevated return rates across both Medium and Very High income groups, suggesting sensitivity to expectations or product quality.",
			"Home and Kitchen also experience high returns (18-20%) among Very High income buyers, showing they are a critical segment in this category.",
			"The findings highlight that Very High income customers are a key driver of elevated return rates, especially within Bags and Home and Kitchen.",
		},
		Recommendations: []string{
			"Recognize Very High income customers as a high-value segment and develop retention strategies such as improved customer experience, enhanced quality assurance, and dedicated post-purchase support.",
		},
	},
	{
		ID: "tax-subcategory", Number: 4, Kind: Multivariate,
		Prompt:     "Return Rate by Tax Level for each Product Subcategory",
		Title:      "Return Rate by Tax Level and Product Subcategory",
		Keys:       []Key{derivedKey("Tax Level", derive.TaxLevelColumn), fieldKey("Product Subcategory", schema.ProductSubcategory)},
		SortByRate: true, Percent: true,
		Chart: ChartGroupedBar, XKey: 1, Export: "tax_sub_return.csv",
		Insights: []string{
			"Mobiles under the High tax level show the highest return rate at 24%, indicating a strong link between increased tax and higher return rates in this subcategory.",
			"Women's products (19-20%) and Furnishing/Kitchen (15-19%) also have elevated returns under high tax levels.",
			"Women's category shows consistently high return rates (19-20%) across all tax levels, indicating a persistent product issue independent of tax.",
			"High tax levels overall are associated with higher product returns, especially for Mobiles and Women's subcategories.",
		},
		Recommendations: []string{
			"Prioritize investigating Mobiles with a 24% return rate under High tax: evaluate perceived value, product quality, and customer expectations.",
			"Launch a pilot with tax adjustments, improved warranties, or bundled value offers to reduce the high return rate observed in Mobiles.",
		},
	},
}

// Catalog returns every question, univariate first.
func Catalog() []Question {
	return append([]Question(nil), catalog...)
}

// Lookup finds a question by ID.
func Lookup(id string) (Question, bool) {
	for _, q := range catalog {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Heading renders "Univariate 3: <prompt>" style labels.
func (q Question) Heading() string {
	k := "Univariate"
	if q.Kind == Multivariate {
		k = "Multivariate"
	}
	return k + " " + itoa(q.Number) + ": " + q.Prompt
}

// Required lists the raw fields a question reads, counting derived keys by
// their source field.
func (q Question) Required() []schema.Field {
	out := []schema.Field{schema.Return}
	if q.WomenOnly {
		out = append(out, schema.ProductSubcategory)
	}
	for _, k := range q.Keys {
		if k.Derived == "" {
			out = appendField(out, k.Field)
			continue
		}
		out = appendField(out, derivedSource[k.Derived])
	}
	return out
}

var derivedSource = map[string]schema.Field{
	derive.ReviewLevelColumn:    schema.Reviews,
	derive.IncomeCategoryColumn: schema.Income,
	derive.TaxLevelColumn:       schema.Tax,
}

func appendField(fs []schema.Field, f schema.Field) []schema.Field {
	for _, x := range fs {
		if x == f {
			return fs
		}
	}
	return append(fs, f)
}
