package certificate

import (
	"fmt"
	"strings"
)

// rowNumberHeader heads the running row-number column of templates A and B.
const rowNumberHeader = "NR"

// currentGeneration is the technology value kept from TemplateA tables.
const currentGeneration = "4G"

// TemplateC carries the row number in column 0 and a combined tilt in column 8.
var templateCDropped = []int{0, 8}

type normalizeFunc func(g RawGrid) (Table, error)

var normalizers = map[Template]normalizeFunc{
	TemplateA:       normalizeTemplateA,
	TemplateB:       normalizeTemplateB,
	TemplateC:       normalizeTemplateC,
	NonAntennaTable: normalizeNonAntenna,
	Unsupported:     normalizeUnsupported,
}

// Normalize classifies a grid and maps it onto the canonical schema.
func Normalize(g RawGrid) (Template, Table, error) {
	t := Classify(g)
	table, err := normalizers[t](g)
	return t, table, err
}

func normalizeTemplateA(g RawGrid) (Table, error) {
	header := g[0]
	nr := indexOf(header, rowNumberHeader)
	if nr < 0 {
		return nil, unsupported(TemplateA, g, fmt.Errorf("header has no %s column", rowNumberHeader))
	}
	tech := len(header) - 1
	if err := checkWidth(len(header) - 2); err != nil {
		return nil, unsupported(TemplateA, g, err)
	}

	var rows [][]string
	for _, row := range g[1:] {
		if len(row) != len(header) {
			continue
		}
		if strings.TrimSpace(row[tech]) != currentGeneration {
			continue
		}
		rows = append(rows, dropColumns(row, nr, tech))
	}
	if len(rows) == 0 {
		return Table{}, nil
	}

	table, err := parseRows(rows, strict)
	if err != nil {
		return nil, unsupported(TemplateA, g, err)
	}
	return table, nil
}

func normalizeTemplateB(g RawGrid) (Table, error) {
	header := g[0]
	nr := indexOf(header, rowNumberHeader)
	if nr < 0 {
		return nil, unsupported(TemplateB, g, fmt.Errorf("header has no %s column", rowNumberHeader))
	}
	if err := checkWidth(len(header) - 1); err != nil {
		return nil, unsupported(TemplateB, g, err)
	}

	var rows [][]string
	for _, row := range g[1:] {
		if len(row) != len(header) {
			continue
		}
		rows = append(rows, dropColumns(row, nr))
	}

	table, err := parseRows(rows, strict)
	if err != nil {
		return nil, unsupported(TemplateB, g, err)
	}
	return table.WithoutLegacyBands(), nil
}

// normalizeTemplateC parses cells as printed; a decimal comma leaves the field null.
func normalizeTemplateC(g RawGrid) (Table, error) {
	cols := g.Cols()
	if err := checkWidth(cols - len(templateCDropped)); err != nil {
		return nil, unsupported(TemplateC, g, err)
	}

	var rows [][]string
	if g.Rows() > 2 {
		for _, row := range g[2:] {
			if len(row) != cols {
				continue
			}
			rows = append(rows, dropColumns(row, templateCDropped...))
		}
	}

	table, err := parseRows(rows, tolerant)
	if err != nil {
		return nil, unsupported(TemplateC, g, err)
	}
	return table.WithoutLegacyBands(), nil
}

func normalizeNonAntenna(RawGrid) (Table, error) {
	return Table{}, nil
}

func normalizeUnsupported(g RawGrid) (Table, error) {
	return nil, unsupported(Unsupported, g, nil)
}

func parseRows(rows [][]string, mode coercion) (Table, error) {
	table := make(Table, 0, len(rows))
	for i, cells := range rows {
		rec, err := toRecord(cells, i, mode)
		if err != nil {
			return nil, err
		}
		table = append(table, rec)
	}
	return table, nil
}

func checkWidth(n int) error {
	if n != len(Columns) {
		return fmt.Errorf("%d data columns, want %d", n, len(Columns))
	}
	return nil
}

func indexOf(row []string, name string) int {
	for i, cell := range row {
		if strings.TrimSpace(cell) == name {
			return i
		}
	}
	return -1
}

// dropColumns returns a copy of row without the given column indexes.
func dropColumns(row []string, drop ...int) []string {
	out := make([]string, 0, len(row))
	for i, cell := range row {
		skip := false
		for _, d := range drop {
			if i == d {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, cell)
		}
	}
	return out
}
