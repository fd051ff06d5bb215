// This file implements utilities for parsing and validating request bodies.
// Expense payloads are accepted as JSON or as urlencoded forms.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"spendtrack/internal/core"
)

const maxBodyBytes = 64 << 10

// ExpensePayload is the body of a create or update request. Amount accepts a
// JSON number or a string such as "12,50".
type ExpensePayload struct {
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
}

// BudgetPayload is the body of a budget replacement.
type BudgetPayload struct {
	Amount         float64            `json:"amount"`
	Period         string             `json:"period"`
	CategoryLimits map[string]float64 `json:"categoryLimits"`
}

// ParseExpenseInput reads an expense from a JSON or form body.
func ParseExpenseInput(r *http.Request) (core.ExpenseInput, error) {
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			return core.ExpenseInput{}, fmt.Errorf("%w: invalid form: %v", errBadRequest, err)
		}
		amount, err := core.ParseAmount(r.Form.Get("amount"))
		if err != nil {
			return core.ExpenseInput{}, err
		}
		return core.ExpenseInput{
			Description: sanitizeInput(r.Form.Get("description")),
			Amount:      amount,
			Category:    sanitizeInput(r.Form.Get("category")),
			Date:        strings.TrimSpace(r.Form.Get("date")),
		}, nil
	}

	var p ExpensePayload
	if err := DecodeJSON(r, &p); err != nil {
		return core.ExpenseInput{}, err
	}
	amount, err := parseAmountJSON(p.Amount)
	if err != nil {
		return core.ExpenseInput{}, err
	}
	return core.ExpenseInput{
		Description: sanitizeInput(p.Description),
		Amount:      amount,
		Category:    sanitizeInput(p.Category),
		Date:        strings.TrimSpace(p.Date),
	}, nil
}

// ParseBudget reads a full budget configuration.
func ParseBudget(r *http.Request) (core.Budget, error) {
	var p BudgetPayload
	if err := DecodeJSON(r, &p); err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{
		Amount: p.Amount,
		Period: core.Period(strings.ToLower(strings.TrimSpace(p.Period))),
	}
	if len(p.CategoryLimits) > 0 {
		b.CategoryLimits = make(map[string]float64, len(p.CategoryLimits))
		for c, limit := range p.CategoryLimits {
			b.CategoryLimits[sanitizeInput(c)] = limit
		}
	}
	return b, nil
}

var errBadRequest = errors.New("bad request")

// DecodeJSON decodes a single JSON value from a size-limited body and rejects
// unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", errBadRequest)
	}
	return nil
}

func parseAmountJSON(raw json.RawMessage) (float64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, core.ErrInvalidAmount
	}
	if strings.HasPrefix(s, `"`) {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, core.ErrInvalidAmount
		}
		return core.ParseAmount(text)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, core.ErrInvalidAmount
	}
	return v, nil
}

func isForm(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/x-www-form-urlencoded"
}

// wantsConfirm reports whether the client already accepted budget warnings.
func wantsConfirm(r *http.Request) bool {
	v := r.URL.Query().Get("confirm")
	if v == "" {
		v = r.Header.Get("X-Confirm")
	}
	ok, _ := strconv.ParseBool(v)
	return ok
}
