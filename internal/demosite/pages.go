package demosite

// Page is one fixture page. Params are sent in a beacon once the page loads;
// ClickParams, when set, are sent by clicking the #submit button.
type Page struct {
	Path        string
	Title       string
	Params      map[string]string
	ClickParams map[string]string
}

// Pages returns the fixture pages in the order the sample CSV lists them.
func Pages() []Page {
	return []Page{
		{
			Path:  "/",
			Title: "Home",
			Params: map[string]string{
				"pageName": "home",
				"channel":  "web",
			},
		},
		{
			Path:  "/products",
			Title: "Products",
			Params: map[string]string{
				"pageName": "products",
				"prop1":    "catalog",
				"v2":       "spring sale",
			},
		},
		{
			Path:  "/checkout",
			Title: "Checkout",
			Params: map[string]string{
				"pageName": "checkout",
			},
			ClickParams: map[string]string{
				"pageName": "checkout",
				"events":   "purchase",
			},
		},
		{
			// No tracking at all.
			Path:  "/quiet",
			Title: "Quiet",
		},
	}
}
