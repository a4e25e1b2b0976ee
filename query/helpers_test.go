package query

import (
	"time"

	"github.com/vegasq/tabask/table"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// salesTable builds the fixture most query tests run against.
//
//	date        region  product  sales  revenue  units
//	2023-03-05  East    Widget   100    1000     10
//	2023-03-20  West    Gadget   200    1500     5
//	2023-04-02  East    Gadget   50     800      8
//	2024-03-11  East    Widget   75     900      3
//	2023-03-28  North   Widget   25     400      nil
//	nil         West    Widget   10     100      1
func salesTable() *table.Table {
	t := table.New(
		table.Column{Name: "date", Kind: table.KindDatetime},
		table.Column{Name: "region", Kind: table.KindCategorical},
		table.Column{Name: "product", Kind: table.KindCategorical},
		table.Column{Name: "sales", Kind: table.KindNumeric},
		table.Column{Name: "revenue", Kind: table.KindNumeric},
		table.Column{Name: "units", Kind: table.KindNumeric},
	)
	t.Append(table.Row{"date": day(2023, time.March, 5), "region": "East", "product": "Widget", "sales": int64(100), "revenue": 1000.0, "units": int64(10)})
	t.Append(table.Row{"date": day(2023, time.March, 20), "region": "West", "product": "Gadget", "sales": int64(200), "revenue": 1500.0, "units": int64(5)})
	t.Append(table.Row{"date": day(2023, time.April, 2), "region": "East", "product": "Gadget", "sales": int64(50), "revenue": 800.0, "units": int64(8)})
	t.Append(table.Row{"date": day(2024, time.March, 11), "region": "East", "product": "Widget", "sales": int64(75), "revenue": 900.0, "units": int64(3)})
	t.Append(table.Row{"date": day(2023, time.March, 28), "region": "North", "product": "Widget", "sales": int64(25), "revenue": 400.0, "units": nil})
	t.Append(table.Row{"date": nil, "region": "West", "product": "Widget", "sales": int64(10), "revenue": 100.0, "units": int64(1)})
	return t
}

// scalar returns the single value of a one-row, one-column result.
func scalar(t *table.Table) interface{} {
	if len(t.Columns) != 1 || len(t.Rows) != 1 {
		return nil
	}
	return t.Rows[0][t.Columns[0].Name]
}
