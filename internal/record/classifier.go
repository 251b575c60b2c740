package record

import (
	"log/slog"
	"strings"
)

// The stock entry screens historically wrote into three separate tables
// with no shared operation column, so classification degrades from
// strong structural evidence down to lexical hints instead of failing
// closed. Rules are kept as an explicit ordered list so precedence is
// auditable and testable per rule.
type classifierRule struct {
	name   string
	detect func(*Record) (Category, bool)
}

var classifierRules = []classifierRule{
	{
		// An explicit tag always wins, no matter what other fields say.
		// Tags are validated by ParseCategory at the adapter boundary.
		name: "explicit-tag",
		detect: func(r *Record) (Category, bool) {
			if r.Operation != "" {
				return r.Operation, true
			}

			return "", false
		},
	},
	{
		name: "both-endpoints",
		detect: func(r *Record) (Category, bool) {
			if strings.TrimSpace(r.SourceLocation) == "" || strings.TrimSpace(r.DestinationLocation) == "" {
				return "", false
			}

			if r.PartnerTransfer != nil && *r.PartnerTransfer {
				return CategoryPartnerStock, true
			}

			return CategoryRelocateStock, true
		},
	},
	{
		name: "sale-evidence",
		detect: func(r *Record) (Category, bool) {
			if r.BuyerName != "" || r.BuyerContact != "" || r.SellingPrice != nil {
				return CategorySellStock, true
			}

			return "", false
		},
	},
	{
		name: "receipt-evidence",
		detect: func(r *Record) (Category, bool) {
			if r.BuyingPrice != nil || r.Humidity != nil {
				return CategoryReceiveNew, true
			}

			return "", false
		},
	},
	{
		// Weakest signal: substring hints in the free-text name.
		// "partner" is deliberately checked ahead of "transfer" so a
		// "Partner stock transfer" row lands as partner-stock, not as a
		// relocation.
		name: "lexical",
		detect: func(r *Record) (Category, bool) {
			name := strings.ToLower(r.Name)
			if name == "" {
				return "", false
			}

			switch {
			case strings.Contains(name, "sale"):
				return CategorySellStock, true
			case strings.Contains(name, "partner"):
				return CategoryPartnerStock, true
			case strings.Contains(name, "transfer"), strings.Contains(name, "relocat"):
				return CategoryRelocateStock, true
			}

			return "", false
		},
	},
}

// Classify assigns an operation category to a record. It is total and
// deterministic: rules are evaluated top to bottom, the first match
// wins, and a record matching nothing falls back to receive-new.
func Classify(r *Record) Category {
	for _, rule := range classifierRules {
		if category, ok := rule.detect(r); ok {
			return category
		}
	}

	slog.Debug("record matched no classification rule, defaulting to receive-new",
		"id", r.ID, "kind", r.Kind, "name", r.Name)

	return CategoryReceiveNew
}

// PartitionTransfers splits a collection of transfer records into
// partner transfers and internal relocations. Every input record lands
// in exactly one of the two outputs.
//
// The partner test here is wider than Classify's: transfer sheets
// rarely carry the partner flag, so a missing source location or a
// "partner" mention in the source or notes also counts. Note the
// divergence: a destination-only record is a partner transfer here but
// classifies as receive-new under the primary rule chain.
func PartitionTransfers(records []*Record) (partner, relocation []*Record) {
	for _, r := range records {
		if isPartnerTransfer(r) {
			partner = append(partner, r)
			continue
		}

		relocation = append(relocation, r)
	}

	return partner, relocation
}

func isPartnerTransfer(r *Record) bool {
	if Classify(r) == CategoryPartnerStock {
		return true
	}

	if strings.TrimSpace(r.SourceLocation) == "" {
		return true
	}

	return containsFold(r.SourceLocation, "partner") || containsFold(r.Notes, "partner")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
