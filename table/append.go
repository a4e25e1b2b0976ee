package table

// Concat appends tables vertically into a new table.
//
// The result holds the union of all columns in order of first appearance.
// A column present in several tables keeps its kind when they agree and
// collapses to KindCategorical when they do not, mirroring how mixed-type
// columns degrade to plain text. Rows missing a column get nil for it.
func Concat(tables ...*Table) *Table {
	out := &Table{Rows: make([]Row, 0)}
	index := make(map[string]int)

	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.Columns {
			i, ok := index[c.Name]
			if !ok {
				index[c.Name] = len(out.Columns)
				out.Columns = append(out.Columns, c)
				continue
			}
			if out.Columns[i].Kind != c.Kind {
				out.Columns[i].Kind = KindCategorical
			}
		}
	}

	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, row := range t.Rows {
			merged := make(Row, len(out.Columns))
			for _, c := range out.Columns {
				merged[c.Name] = row[c.Name]
			}
			out.Rows = append(out.Rows, merged)
		}
	}

	return out
}
