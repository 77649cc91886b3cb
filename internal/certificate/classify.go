package certificate

import "strings"

// Template identifies one historical layout of the certificate sector table.
type Template int

const (
	// TemplateA is the newest layout, with a trailing "Technologie" column
	TemplateA Template = iota
	// TemplateB has 13 columns and no technology column
	TemplateB
	// TemplateC is the oldest layout: 14 columns, two header rows, combined tilt column
	TemplateC
	// NonAntennaTable is a small table without sector data (cover page, signatures)
	NonAntennaTable
	// Unsupported is a wide table that matches no known layout
	Unsupported
)

func (t Template) String() string {
	switch t {
	case TemplateA:
		return "template-a"
	case TemplateB:
		return "template-b"
	case TemplateC:
		return "template-c"
	case NonAntennaTable:
		return "non-antenna"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Header tokens and shapes observed on the regulator's forms.
const (
	technologyHeader = "Technologie"
	templateCTitle   = "Zendantennes"

	templateBCols     = 13
	templateCCols     = 14
	maxNonAntennaCols = 10
)

// Classify selects the handler for a grid from its shape and header cells.
func Classify(g RawGrid) Template {
	cols := g.Cols()

	if cols > 0 && strings.TrimSpace(g.Cell(0, cols-1)) == technologyHeader {
		return TemplateA
	}
	if cols == templateBCols {
		return TemplateB
	}
	if cols == templateCCols {
		if strings.TrimSpace(g.Cell(0, 0)) == templateCTitle {
			return TemplateC
		}
		return Unsupported
	}
	if cols <= maxNonAntennaCols {
		return NonAntennaTable
	}
	return Unsupported
}
