package query

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vegasq/tabask/schema"
	"github.com/vegasq/tabask/table"
)

// suggestThreshold is the similarity above which an unknown column name is
// answered with a "did you mean" hint instead of the full column list.
const suggestThreshold = 60.0

// Execute applies plan to t and returns a newly allocated result table.
//
// The steps run in a fixed order: equality filters, then the time filter on
// the first datetime column, then either the aggregation (when both
// aggregation and metric are set) or the filtered rows as-is. t itself is
// never modified.
func Execute(t *table.Table, plan Plan) (*table.Table, error) {
	return execute(t, schema.Build(t), plan)
}

// Run parses question against t and executes the resulting plan.
func Run(t *table.Table, question string) (*table.Table, error) {
	return Execute(t, Parse(question, t))
}

func execute(t *table.Table, idx *schema.Index, plan Plan) (*table.Table, error) {
	if err := validate(idx, plan); err != nil {
		return nil, err
	}

	result := t.Clone()
	result = ApplyFilters(result, plan.Filters)

	if !plan.TimeFilter.IsEmpty() {
		if column, ok := idx.FirstDatetime(); ok {
			result = ApplyTimeFilter(result, column, plan.TimeFilter)
		}
	}

	if plan.Aggregates() {
		return aggregate(result, plan)
	}

	return result, nil
}

// validate rejects plans naming columns the table does not have. The metric
// and aggregation are only checked when they will actually be used.
func validate(idx *schema.Index, plan Plan) error {
	for _, f := range plan.Filters {
		if _, ok := idx.Kind(f.Column); !ok {
			return fmt.Errorf("filter: %w", unknownColumn(idx, f.Column))
		}
	}

	if !plan.Aggregates() {
		return nil
	}
	if !plan.Aggregation.Valid() {
		return fmt.Errorf("%w: %q (supported: sum, mean, count, max, min)", ErrUnknownAggregation, string(plan.Aggregation))
	}
	if _, ok := idx.Kind(plan.Metric); !ok {
		return fmt.Errorf("metric: %w", unknownColumn(idx, plan.Metric))
	}
	return nil
}

// unknownColumn builds an ErrUnknownColumn error that points the caller at
// the closest existing column, or lists them all when nothing is close.
func unknownColumn(idx *schema.Index, name string) error {
	candidate, score := schema.NewMatcher(idx).Score(name)
	if candidate != "" && score > suggestThreshold {
		return fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownColumn, name, candidate)
	}
	return fmt.Errorf("%w %q (available columns: %s)", ErrUnknownColumn, name, strings.Join(idx.Names(), ", "))
}

// Engine answers repeated questions about one table. It caches the schema
// index and the parser's categorical values, but every Execute still works
// on a fresh copy of the table and shares nothing between calls.
type Engine struct {
	table   *table.Table
	idx     *schema.Index
	parser  *Parser
	matcher *schema.Matcher
	logger  *zap.Logger
}

// NewEngine prepares an engine for t. A nil logger disables logging.
func NewEngine(t *table.Table, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	idx := schema.Build(t)
	return &Engine{
		table:   t,
		idx:     idx,
		parser:  NewParser(t, idx),
		matcher: schema.NewMatcher(idx),
		logger:  logger,
	}
}

// Table returns the source table.
func (e *Engine) Table() *table.Table { return e.table }

// Index returns the schema index of the source table.
func (e *Engine) Index() *schema.Index { return e.idx }

// Matcher returns a fuzzy column matcher over the source table.
func (e *Engine) Matcher() *schema.Matcher { return e.matcher }

// Parse builds a plan for question.
func (e *Engine) Parse(question string) Plan {
	plan := e.parser.Parse(question)
	e.logger.Debug("parsed question",
		zap.String("question", question),
		zap.String("aggregation", string(plan.Aggregation)),
		zap.String("metric", plan.Metric),
		zap.Int("filters", len(plan.Filters)),
		zap.Int("year", plan.TimeFilter.Year),
		zap.Int("month", plan.TimeFilter.Month),
	)
	return plan
}

// Execute applies plan to the source table.
func (e *Engine) Execute(plan Plan) (*table.Table, error) {
	result, err := execute(e.table, e.idx, plan)
	if err != nil {
		e.logger.Warn("query failed", zap.Error(err))
		return nil, err
	}
	e.logger.Debug("query executed",
		zap.Int("input_rows", e.table.Len()),
		zap.Int("result_rows", result.Len()),
		zap.Bool("aggregated", plan.Aggregates()),
	)
	return result, nil
}

// Run parses and executes question, returning the plan alongside the result.
func (e *Engine) Run(question string) (Plan, *table.Table, error) {
	plan := e.Parse(question)
	result, err := e.Execute(plan)
	return plan, result, err
}
