package certificate

// Grid builders shared by the package tests. Cell values mimic what the regulator prints.

var templateAHeader = []string{
	"NR", "Antenne", "Azimut", "Hoogte", "Breedte", "Frequentie", "Hoogte t.o.v. maaiveld",
	"Vermogen", "E-tilt", "M-tilt", "H-opening", "V-opening", "Winst", "Technologie",
}

func templateARow(nr, antenna, freq, tech string) []string {
	return []string{nr, antenna, "120", "2,6", "0,3", freq, "31,5", "46", "4", "0", "65", "7,5", "17,1", tech}
}

var templateBHeader = []string{
	"NR", "Antenne", "Azimut", "Hoogte", "Breedte", "Frequentie", "Hoogte t.o.v. maaiveld",
	"Vermogen", "E-tilt", "M-tilt", "H-opening", "V-opening", "Winst",
}

func templateBRow(nr, antenna, freq string) []string {
	return []string{nr, antenna, "240", "1,4", "0,26", freq, "28", "43,2", "6", "2", "65", "10", "15,5"}
}

func templateCGrid(rows ...[]string) RawGrid {
	g := RawGrid{
		{"Zendantennes", "", "", "", "", "", "", "", "", "", "", "", "", ""},
		{"Nr", "Type", "Azimut", "Hoogte", "Breedte", "Freq.", "Hoogte", "Vermogen", "Tilt", "E-tilt", "M-tilt", "H", "V", "Winst"},
	}
	return append(g, rows...)
}

func templateCRow(nr, antenna, freq, power string) []string {
	return []string{nr, antenna, "10", "2,1", "0,3", freq, "24", power, "6", "4", "2", "65", "9", "16"}
}

func wideGrid(cols int, first string) RawGrid {
	header := make([]string, cols)
	header[0] = first
	row := make([]string, cols)
	return RawGrid{header, row}
}
