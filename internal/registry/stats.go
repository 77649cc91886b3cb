package registry

// Owner names an operator by its short code and the text that identifies it in the
// registry owner fields.
type Owner struct {
	Short string
	Match string
}

// OperatorStats counts the sites of one operator and how many it shares with each other
// operator.
type OperatorStats struct {
	Sites      int            `json:"sites"`
	SharedWith map[string]int `json:"shared_with"`
}

// Statistics summarises co-location across operators.
type Statistics struct {
	Total        int                      `json:"total"`
	AllOperators int                      `json:"all_operators"`
	Colocated    int                      `json:"colocated"`
	Operators    map[string]OperatorStats `json:"operators"`
}

// ComputeStatistics counts sites per operator, sites shared by at least two operators and
// sites shared by all of them.
func ComputeStatistics(sites []Site, owners []Owner) Statistics {
	stats := Statistics{
		Total:     len(sites),
		Operators: make(map[string]OperatorStats, len(owners)),
	}
	for _, o := range owners {
		stats.Operators[o.Short] = OperatorStats{SharedWith: make(map[string]int)}
	}

	for _, s := range sites {
		present := make([]string, 0, len(owners))
		for _, o := range owners {
			if s.OwnedBy(o.Match) {
				present = append(present, o.Short)
			}
		}

		if len(present) >= 2 {
			stats.Colocated++
		}
		if len(owners) > 0 && len(present) == len(owners) {
			stats.AllOperators++
		}

		for _, short := range present {
			op := stats.Operators[short]
			op.Sites++
			for _, other := range present {
				if other != short {
					op.SharedWith[other]++
				}
			}
			stats.Operators[short] = op
		}
	}

	return stats
}
