package util

import (
	"strings"
)

// Header labels that show up as data in hand-maintained spreadsheets and
// price files. Compared lowercased.
var (
	articleLabels = map[string]struct{}{
		"артикул": {}, "артикул продавца": {}, "артикул производителя": {},
		"бренд": {}, "brand": {}, "название": {}, "name": {},
		"nan": {}, "none": {},
	}
	skuLabels = map[string]struct{}{
		"баркод": {}, "barcode": {}, "баркод в системе": {}, "nan": {},
	}
	priceLabels = map[string]struct{}{
		"цена": {}, "price": {}, "nan": {},
	}
	quantityLabels = map[string]struct{}{
		"количество": {}, "amount": {}, "остаток": {}, "quantity": {}, "nan": {},
	}
)

func IsArticleLabel(value string) bool  { return hasLabel(articleLabels, value) }
func IsSKULabel(value string) bool      { return hasLabel(skuLabels, value) }
func IsPriceLabel(value string) bool    { return hasLabel(priceLabels, value) }
func IsQuantityLabel(value string) bool { return hasLabel(quantityLabels, value) }

func hasLabel(set map[string]struct{}, value string) bool {
	_, ok := set[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// NormalizeArticle upper-cases a manufacturer article and removes all
// whitespace, so "AG 01007" and "ag01007" compare equal.
func NormalizeArticle(input string) string {
	s := strings.ToUpper(strings.TrimSpace(input))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == ' ' {
			return -1
		}
		return r
	}, s)
}

// StripArticleSymbols applies NormalizeArticle and additionally drops the
// separator characters suppliers punctuate articles with ("CUK18000-2",
// "CUK 18000/2" and "CUK18000_2" all collapse to "CUK180002").
func StripArticleSymbols(input string) string {
	s := NormalizeArticle(input)
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '/', '_':
			return -1
		}
		return r
	}, s)
}

// CleanNumeric prepares a price or quantity cell for parsing: quotes,
// spaces and non-breaking spaces go away, a decimal comma becomes a dot.
func CleanNumeric(input string) string {
	repl := strings.NewReplacer(" ", "", " ", "", "\"", "", "'", "", ",", ".")
	return repl.Replace(strings.TrimSpace(input))
}

// IsDigits reports whether the string is non-empty and all ASCII digits.
func IsDigits(input string) bool {
	if input == "" {
		return false
	}
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
