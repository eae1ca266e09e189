package predict

// Bounds is an inclusive numeric input range with the form default.
type Bounds struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

// Category pairs a product category with its valid subcategories.
type Category struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

// Options describes every accepted input value, in form order.
type Options struct {
	Quantity     Bounds     `json:"quantity"`
	UnitPrice    Bounds     `json:"unit_price"`
	Tax          Bounds     `json:"tax"`
	Reviews      Bounds     `json:"reviews"`
	Income       Bounds     `json:"income"`
	Categories   []Category `json:"categories"`
	PaymentModes []string   `json:"payment_modes"`
	Cities       []string   `json:"cities"`
}

var formOptions = Options{
	Quantity:  Bounds{Min: 1, Max: 10, Default: 3},
	UnitPrice: Bounds{Min: 0, Max: 20000, Default: 776.17},
	Tax:       Bounds{Min: 0, Max: 2000, Default: 241.24},
	Reviews:   Bounds{Min: 1, Max: 5, Default: 4},
	Income:    Bounds{Min: 0, Max: 300000, Default: 70516.88},
	Categories: []Category{
		{Name: "Books", Subcategories: []string{"Fiction", "DIY", "Non-Fiction", "Academic"}},
		{Name: "Clothing", Subcategories: []string{"Women", "Mens"}},
		{Name: "Home and kitchen", Subcategories: []string{"Bath", "Kitchen", "Furnishing", "Tools"}},
		{Name: "Footwear", Subcategories: []string{"Mens", "Women", "Kids"}},
		{Name: "Bags", Subcategories: []string{"Women", "Mens"}},
		{Name: "Electronics", Subcategories: []string{"Mobiles", "Audio and video", "Computers", "Cameras", "Personal Appliances"}},
	},
	PaymentModes: []string{"Mobile Payments", "Credit Card", "Debit Card", "Cash"},
	Cities: []string{
		"Hyderabad", "Bangalore", "Kolkata", "New Delhi", "Chennai",
		"Pune", "Ahmedabad", "Gurgaon", "Vishakhapatnam", "Mumbai",
	},
}

// FormOptions returns a copy of the accepted input domains.
func FormOptions() Options {
	o := formOptions
	o.Categories = make([]Category, len(formOptions.Categories))
	for i, c := range formOptions.Categories {
		o.Categories[i] = Category{Name: c.Name, Subcategories: append([]string(nil), c.Subcategories...)}
	}
	o.PaymentModes = append([]string(nil), formOptions.PaymentModes...)
	o.Cities = append([]string(nil), formOptions.Cities...)
	return o
}

// Subcategories returns the subcategories of a category.
func (o Options) Subcategories(category string) ([]string, bool) {
	for _, c := range o.Categories {
		if c.Name == category {
			return c.Subcategories, true
		}
	}
	return nil, false
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
