// internal/marketlist/catalog.go
package marketlist

// defaultCategories is the fixed category universe used when the caller does
// not narrow the selection.
var defaultCategories = []string{
	"BEVERAGE",
	"FOOD ITEM",
	"CLEANING SUPPLY",
	"GUEST SUPPLY",
	"CONSUMABLE",
	"PRINTING AND STATIONERIES",
}

// chemicalItems route to the chemicals & detergents sheet instead of the
// house sheet.
var chemicalItems = map[string]bool{
	"BLEACH":        true,
	"IZAL":          true,
	"LIQUID SOAP":   true,
	"ODOUR CONTROL": true,
}

// staffFoodItems are shared between staff feeding and house consumption;
// their forecast is split between the two sheets.
var staffFoodItems = map[string]bool{
	"CRAYFISH (STAFF)":               true,
	"STAR MAGGI (STAFF)":             true,
	"DRY PEPPER":                     true,
	"RED OIL (STAFF)":                true,
	"GARRI":                          true,
	"VEGETABLE OIL (STAFF)":          true,
	"LOCAL BEANS (STAFF)":            true,
	"SALT":                           true,
	"DRY FISH (STAFF)":               true,
	"RICE (STAFF)":                   true,
	"SPAGHETTI (STAFF)":              true,
	"TIN TOMATO (400g FOR STAFF)":    true,
	"TOMATO FLAVOR SEASONING (CUBE)": true,
	"CURRY POWDER (500g)":            true,
	"SUGAR (GRANULATED, STAFF)":      true,
	"ONGA SEASONING (STAFF)":         true,
	"KNORR CUBE":                     true,
	"TIN TOMATO (2.2kg, STAFF)":      true,
	"CORN FLOUR":                     true,
	"OGBONO (STAFF)":                 true,
}
