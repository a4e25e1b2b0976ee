package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/vegasq/tabask/narrative"
	"github.com/vegasq/tabask/output"
	"github.com/vegasq/tabask/query"
	"github.com/vegasq/tabask/table"
)

// maxBodyBytes caps request bodies; questions and plans are small.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// QuestionRequest is the body of /parse and /ask.
type QuestionRequest struct {
	Question string `json:"question"`
}

// QueryRequest is the body of /query. Exactly one of Question and Plan is
// expected; Plan wins when both are set. Limit caps the returned rows and
// zero means no cap.
type QueryRequest struct {
	Question string      `json:"question,omitempty"`
	Plan     *query.Plan `json:"plan,omitempty"`
	Limit    int         `json:"limit,omitempty"`
}

// QueryResponse carries a plan and the table it produced.
type QueryResponse struct {
	Plan     query.Plan      `json:"plan"`
	Columns  []table.Column  `json:"columns"`
	Rows     json.RawMessage `json:"rows"`
	RowCount int             `json:"row_count"`
}

// SchemaResponse describes the loaded table.
type SchemaResponse struct {
	Columns []table.Column `json:"columns"`
	Rows    int            `json:"rows"`
}

// MatchResponse is the result of a fuzzy column lookup. Column is empty
// when nothing matched; Candidate is always the closest column.
type MatchResponse struct {
	Token     string  `json:"token"`
	Column    string  `json:"column"`
	Candidate string  `json:"candidate"`
	Score     float64 `json:"score"`
	Matched   bool    `json:"matched"`
}

// AnswerResponse is the body of /ask.
type AnswerResponse struct {
	Answer string `json:"answer"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Schema lists the loaded table's columns and kinds.
func (h *Handler) Schema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SchemaResponse{
		Columns: h.engine.Index().Columns(),
		Rows:    h.engine.Table().Len(),
	})
}

// Match resolves the token query parameter to a column.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		writeError(w, http.StatusBadRequest, errors.New("token parameter is required"))
		return
	}

	matcher := h.engine.Matcher()
	candidate, score := matcher.Score(token)
	column, ok := matcher.Match(token)

	writeJSON(w, http.StatusOK, MatchResponse{
		Token:     token,
		Column:    column,
		Candidate: candidate,
		Score:     score,
		Matched:   ok,
	})
}

// Parse returns the plan for a question without executing it.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Parse(req.Question))
}

// Query executes a question or an explicit plan.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Limit < 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("limit must not be negative, got %d", req.Limit))
		return
	}

	var plan query.Plan
	if req.Plan != nil {
		plan = *req.Plan
		if plan.Filters == nil {
			plan.Filters = []query.Filter{}
		}
	} else {
		plan = h.engine.Parse(req.Question)
	}

	result, err := h.engine.Execute(plan)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	total := result.Len()
	if req.Limit > 0 {
		result = result.Head(req.Limit)
	}

	rows, err := output.MarshalRows(result.ColumnNames(), result.Rows)
	if err != nil {
		h.logger.Error("failed to encode result",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		Plan:     plan,
		Columns:  result.Columns,
		Rows:     rows,
		RowCount: total,
	})
}

// Ask answers a question in prose about the loaded table. Service failures
// come back as 200 with an "AI Error: " answer.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, errors.New("question is required"))
		return
	}

	answer := narrative.Ask(r.Context(), h.generator, h.engine.Table(), req.Question)
	if strings.HasPrefix(answer, narrative.ErrorPrefix) {
		h.logger.Warn("narrative unavailable",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("answer", answer),
		)
	}
	writeJSON(w, http.StatusOK, AnswerResponse{Answer: answer})
}

// statusFor maps plan errors to 400 and anything else to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, query.ErrUnknownColumn),
		errors.Is(err, query.ErrUnknownAggregation),
		errors.Is(err, query.ErrNotNumeric):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
