package scout

import "strings"

// ProviderOther is the key for vendors missing from the table.
const ProviderOther = "other"

// providerTable maps display-name substrings to canonical keys. Order matters:
// the first matching row wins.
var providerTable = []struct {
	substr string
	key    string
}{
	{"netflix", "netflix"},
	{"prime", "prime"},
	{"amazon", "prime"},
	{"hulu", "hulu"},
	{"disney", "disney"},
	{"hbo", "max"},
	{"max", "max"},
	{"apple", "apple"},
	{"paramount", "paramount"},
	{"peacock", "peacock"},
	{"crunchy", "crunchy"},
	{"youtube", "youtube"},
}

// ProviderKey derives the canonical key of a provider display name.
func ProviderKey(displayName string) string {
	n := strings.ToLower(displayName)
	for _, row := range providerTable {
		if strings.Contains(n, row.substr) {
			return row.key
		}
	}
	return ProviderOther
}

// ProviderKeys lists every canonical key, in table order, without duplicates.
func ProviderKeys() []string {
	seen := make(map[string]bool, len(providerTable))
	keys := make([]string, 0, len(providerTable))
	for _, row := range providerTable {
		if !seen[row.key] {
			seen[row.key] = true
			keys = append(keys, row.key)
		}
	}
	return keys
}

// Offer is one provider entry in a region's availability lists.
type Offer struct {
	ProviderID      int    `json:"provider_id"`
	ProviderName    string `json:"provider_name"`
	LogoPath        string `json:"logo_path,omitempty"`
	DisplayPriority int    `json:"display_priority"`
}

// RegionOffers is the availability of one title in one country.
type RegionOffers struct {
	Link     string  `json:"link,omitempty"`
	Flatrate []Offer `json:"flatrate,omitempty"`
	Ads      []Offer `json:"ads,omitempty"`
	Rent     []Offer `json:"rent,omitempty"`
	Buy      []Offer `json:"buy,omitempty"`
}

// ProviderNames flattens subscription, ad-supported, rental and purchase
// offers, in that order. Duplicates are kept.
func (r RegionOffers) ProviderNames() []string {
	names := make([]string, 0, len(r.Flatrate)+len(r.Ads)+len(r.Rent)+len(r.Buy))
	for _, group := range [][]Offer{r.Flatrate, r.Ads, r.Rent, r.Buy} {
		for _, o := range group {
			names = append(names, o.ProviderName)
		}
	}
	return names
}
