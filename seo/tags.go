package seo

import "fmt"

// LocationSearchTags builds the search phrases stored with a listing when the
// admin does not supply any.
func LocationSearchTags(city, state, locality string) []string {
	var tags []string
	if city != "" {
		tags = append(tags, city, city+" properties", "Buy in "+city, "Sell in "+city)
	}
	if locality != "" {
		tags = append(tags, locality, fmt.Sprintf("%s %s", locality, city), "Properties in "+locality)
	}
	if state != "" {
		tags = append(tags, state+" properties", "Real estate in "+state)
	}
	switch city {
	case "Dehradun":
		tags = append(tags, "Dehradun flats", "Dehradun villas", "Property in Dehradun", "Buy flats Dehradun")
	case "Rishikesh":
		tags = append(tags, "Rishikesh property", "Rishikesh apartments", "Real estate Rishikesh")
	}
	return dedupe(tags)
}

// MetaDescription fits within the 160 characters search engines display.
func MetaDescription(title, city, categoryLabel string, price float64) string {
	desc := fmt.Sprintf("%s in %s. %s in %s. %s. Browse top rated properties with photos and details.",
		title, city, categoryLabel, city, FormatINR(price))
	return Truncate(desc, 160)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
