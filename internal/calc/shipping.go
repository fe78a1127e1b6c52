package calc

// ShippingLine is the slice of a line item the shipping allocator needs.
type ShippingLine struct {
	LineIndex      int
	PostalCode     string
	AddressLine1   string
	RecipientName  string
	LineTotal      Money
	IsFreeShipping bool
}

// deliveryKey groups lines going to the same physical destination. Matching is
// exact string equality on purpose: no trimming, no width normalization.
func deliveryKey(postalCode, address1, name string) string {
	return postalCode + "|" + address1 + "|" + name
}

// AllocateShipping assigns a shipping fee to each line, keyed by LineIndex.
//
// Lines are grouped by destination. A group ships free when its total reaches
// the threshold or when any member product is free-shipping eligible.
// Otherwise the representative line (smallest LineIndex) carries the default
// fee once for the whole group and every other member is zero.
func AllocateShipping(lines []ShippingLine, defaultFee, freeThreshold Money) map[int]Money {
	groups := make(map[string][]ShippingLine)
	order := make([]string, 0, len(lines))
	for _, line := range lines {
		key := deliveryKey(line.PostalCode, line.AddressLine1, line.RecipientName)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], line)
	}

	fees := make(map[int]Money, len(lines))
	for _, line := range lines {
		fees[line.LineIndex] = 0
	}

	for _, key := range order {
		group := groups[key]
		var groupTotal Money
		hasFreeShippingProduct := false
		for _, line := range group {
			groupTotal += line.LineTotal
			if line.IsFreeShipping {
				hasFreeShippingProduct = true
			}
		}
		if groupTotal >= freeThreshold || hasFreeShippingProduct {
			continue
		}
		representative := group[0]
		for _, line := range group[1:] {
			if line.LineIndex < representative.LineIndex {
				representative = line
			}
		}
		fees[representative.LineIndex] = defaultFee
	}

	return fees
}
