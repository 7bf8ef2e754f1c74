package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// amountRegexp is the primary candidate-amount matcher: an optional rp/idr
// prefix, then either a grouped-thousands run or a bare decimal number.
var amountRegexp = regexp.MustCompile(`(?i)(?:(?:rp|idr)\s*)?(\d{1,3}(?:[.,\s]\d{3})+(?:[.,]\d{2})?|\d+(?:[.,]\d{2})?)`)

// noisyAmountRegexp is a looser fallback for OCR-mangled numeric runs that
// amountRegexp can miss entirely.
var noisyAmountRegexp = regexp.MustCompile(`\d[\d.,\s]{3,}\d`)

var malformedGroupRegexp = regexp.MustCompile(`^\d{1,3}[.,]\d{2}[.,]00$`)
var trailingDecimalRegexp = regexp.MustCompile(`([.,])(\d{2})$`)
var nonAmountCharRegexp = regexp.MustCompile(`[^0-9.,]`)
var nonDigitRegexp = regexp.MustCompile(`\D`)

// parseAmount converts a raw digit-punctuation token ("Rp 1.250.000,00") into
// an integer rupiah value, or false when the token can't be parsed into a
// value in (0, MaxAmount].
//
// Separator policy, applied in order:
//   - normalize rp/idr prefixes and whitespace away
//   - fix the malformed "168.00,00"-shaped OCR mis-grouping
//   - find a trailing decimal separator+tail
//   - when both '.' and ',' are present, the rightmost is the decimal
//     separator and the other is thousands
//   - when only one kind of separator is present, 2+ occurrences means
//     thousands-grouping; a single '.' followed by exactly 3 digits is a
//     thousands separator, and a single ',' is a decimal separator when at
//     most 2 digits follow it (thousands otherwise)
//   - a "00" decimal tail is dropped, since rupiah receipts carry no
//     effective sub-unit
func parseAmount(raw string) (int, bool) {
	text := strings.ToLower(raw)
	text = strings.ReplaceAll(text, "rp", "")
	text = strings.ReplaceAll(text, "idr", "")
	text = strings.ReplaceAll(text, " ", "")
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	text = nonAmountCharRegexp.ReplaceAllString(text, "")
	if text == "" {
		return 0, false
	}

	if malformedGroupRegexp.MatchString(text) {
		parts := splitSeparators(text)
		if len(parts) == 3 {
			text = parts[0] + parts[1] + "0,00"
		}
	}

	decimalMatch := trailingDecimalRegexp.FindStringSubmatch(text)
	var decimalSep, decimalTail string
	if decimalMatch != nil {
		decimalSep, decimalTail = decimalMatch[1], decimalMatch[2]
	}

	hasComma := strings.Contains(text, ",")
	hasDot := strings.Contains(text, ".")

	switch {
	case hasComma && hasDot:
		lastComma := strings.LastIndex(text, ",")
		lastDot := strings.LastIndex(text, ".")
		if lastComma > lastDot {
			text = strings.ReplaceAll(text, ".", "")
			text = strings.ReplaceAll(text, ",", ".")
		} else {
			text = strings.ReplaceAll(text, ",", "")
		}
	case hasDot:
		parts := strings.Split(text, ".")
		if len(parts) > 2 {
			text = strings.ReplaceAll(text, ".", "")
		} else {
			right := ""
			if len(parts) == 2 {
				right = parts[1]
			}
			if len(right) == 3 {
				text = strings.ReplaceAll(text, ".", "")
			}
		}
	case hasComma:
		parts := strings.Split(text, ",")
		if len(parts) > 2 {
			text = strings.ReplaceAll(text, ",", "")
		} else {
			right := ""
			if len(parts) == 2 {
				right = parts[1]
			}
			if len(right) <= 2 {
				text = strings.ReplaceAll(text, ",", ".")
			} else {
				text = strings.ReplaceAll(text, ",", "")
			}
		}
	}

	if decimalSep != "" && decimalTail == "00" {
		stripped := nonDigitRegexp.ReplaceAllString(text, "")
		if len(stripped) >= 3 && strings.HasSuffix(stripped, "00") {
			text = stripped[:len(stripped)-2]
		}
	}

	text = strings.ReplaceAll(text, ".", "")
	text = strings.ReplaceAll(text, ",", "")

	if !isAllDigits(text) {
		digitsOnly := nonDigitRegexp.ReplaceAllString(text, "")
		if digitsOnly == "" || !isAllDigits(digitsOnly) {
			return 0, false
		}
		text = digitsOnly
	}

	value, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}
	if value <= 0 || value > MaxAmount {
		return 0, false
	}
	return value, true
}

func splitSeparators(s string) []string {
	return regexp.MustCompile(`[.,]`).Split(s, -1)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// amountsFromLine runs the primary regex and the noisy fallback over text,
// parses each candidate with parseAmount, filters to [MinAmount,
// MaxValidAmount], rejects values with more than MaxAmountDigits digits, and
// de-duplicates while preserving first-seen order.
func amountsFromLine(text string) []int {
	lower := strings.ToLower(text)
	seen := make(map[int]bool)
	var values []int

	appendValue := func(raw string) {
		value, ok := parseAmount(raw)
		if !ok {
			return
		}
		if value < MinAmount || value > MaxValidAmount {
			return
		}
		if len(strconv.Itoa(value)) > MaxAmountDigits {
			return
		}
		if !seen[value] {
			seen[value] = true
			values = append(values, value)
		}
	}

	for _, m := range amountRegexp.FindAllStringSubmatch(lower, -1) {
		appendValue(m[1])
	}
	for _, m := range noisyAmountRegexp.FindAllString(lower, -1) {
		appendValue(m)
	}

	return values
}
