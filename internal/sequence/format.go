package sequence

import (
	"fmt"
	"strconv"
	"strings"
)

// Format fixes the rendered shape of a module's numbers. Legacy data carried
// one shape per module (hyphenated notes, zero-padded stock counts, bare
// order numbers); each module keeps its historical shape so already-issued
// numbers stay comparable, but within a module there is exactly one format.
type Format struct {
	Hyphen bool
	Pad    int
}

var formats = map[string]Format{
	ModulePurchaseOrder:     {},
	ModuleDebitNote:         {Hyphen: true},
	ModulePurchaseDebitNote: {Hyphen: true},
	ModuleSalesDebitNote:    {Hyphen: true},
	ModuleCreditNote:        {Hyphen: true},
	ModuleStockVerification: {Pad: 6},
	ModuleReceipt:           {},
	ModulePosOrder:          {Pad: 6},
}

// FormatFor returns the canonical format for a module. Unknown modules get
// the plain unpadded shape.
func FormatFor(module string) Format {
	return formats[module]
}

// Render produces the document number for a value under this format.
func (f Format) Render(prefix string, value int64) string {
	sep := ""
	if f.Hyphen {
		sep = "-"
	}
	if f.Pad > 0 {
		return fmt.Sprintf("%s%s%0*d", prefix, sep, f.Pad, value)
	}
	return fmt.Sprintf("%s%s%d", prefix, sep, value)
}

// ParseTrailing extracts the numeric tail of an issued number. Parsing is
// deliberately liberal: a number that does not match the expected shape
// yields 0, i.e. it is treated as absent. Legacy collections contain
// hand-entered numbers and the backfill must not choke on them.
func ParseTrailing(number, prefix string) int64 {
	rest, ok := strings.CutPrefix(number, prefix)
	if !ok {
		return 0
	}
	rest = strings.TrimPrefix(rest, "-")
	if rest == "" {
		return 0
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
