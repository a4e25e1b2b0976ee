// Package query translates natural-language questions about a table into
// structured plans and executes those plans deterministically.
//
// A question is parsed with plain, ordered substring scans:
//   - the aggregation keyword (total, sum, average, mean, count, max, min;
//     the first keyword in that list found in the question wins)
//   - the metric: the first numeric column whose name occurs in the question
//   - a month name (January..December) and a year matching 20xx
//   - equality filters for every categorical value mentioned
//
// Anything the parser cannot resolve is left out of the plan, so vague
// questions degrade to broader queries instead of failing.
//
// # Basic Usage
//
// Answer a question in one call:
//
//	result, err := query.Run(t, "total sales in March 2023")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// result has one row and one column, "sum_sales"
//
// Inspect the plan before executing it:
//
//	plan := query.Parse("average revenue for East", t)
//	// plan.Aggregation == query.AggMean, plan.Metric == "revenue"
//	// plan.Filters == []query.Filter{{Column: "region", Value: "East"}}
//	result, err := query.Execute(t, plan)
//
// # Execution Order
//
// Execute works on a private copy of the table and applies, in order:
//
//  1. every equality filter (logical AND)
//  2. the year/month filter against the table's first datetime column
//  3. the aggregation, when both aggregation and metric are set
//
// Without an aggregation the filtered rows are returned with all columns.
//
// # Repeated Queries
//
// Engine keeps the schema index and categorical values of one table so
// hosts answering many questions do not rebuild them each time:
//
//	engine := query.NewEngine(t, logger)
//	plan, result, err := engine.Run("count orders in 2024")
package query
