package extract

import "strings"

// Keyword vocabularies shared across the extractor family. See spec.md §4.4
// for which stage uses which list.
var (
	totalKeywords = []string{
		"total", "t0tal", "sub total", "subtotal", "grand total",
		"jumlah", "jumlah tagihan", "tagihan", "total bayar", "total pembayaran",
	}

	retailRankKeywords = []string{
		"total", "t0tal", "grand total", "jumlah", "total bayar", "total pembayaran",
	}

	negativeNearTokens = []string{
		"trx", "id", "no", "ref", "npwp", "resi", "nomor telepon", "telepon", "pelanggan", "tanggal", "jam",
	}

	v3NegativeContextTokens = []string{
		"trx", "id", "ref", "no ", "npwp", "resi", "nomor telepon", "telepon", "pelanggan",
		"tanggal", "saldo", "cashback", "admin", "biaya", "fee", "subtotal", "service", "charge",
		"ppn", "pb1", "tax",
	}

	blockedBillingTokens = []string{
		"npwp", "resi", "nomor telepon", "telepon", "pelanggan", "tanggal", "jam",
		"admin", "service", "charge", "ppn", "pb1", "tax", "subtotal",
	}
)

// zeroToOh applies the "0"->"o" OCR-confusion repair. Must only be used when
// comparing against keyword lists, never on text emitted back to the user.
func zeroToOh(s string) string {
	return strings.ReplaceAll(s, "0", "o")
}

func containsAny(text string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func keywordMatch(text string) bool {
	normalized := zeroToOh(text)
	return containsAny(normalized, totalKeywords)
}
