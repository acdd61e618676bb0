// Package http provides the JSON API server and handlers.
//
// This file implements the request helpers: body decoding, session lookup
// and query parameter parsing.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pocketbook/internal/core"
	"pocketbook/internal/session"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// requireUser returns the signed-in user id or session.ErrNoSession.
func requireUser(r *http.Request) (string, error) {
	return session.UserID(r.Context())
}

// amountInput accepts amounts as JSON numbers or strings, with dot or comma
// separators.
type amountInput string

func (a *amountInput) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*a = ""
		return nil
	}
	*a = amountInput(strings.Trim(s, `"`))
	return nil
}

func (a amountInput) parse() (decimal.Decimal, error) {
	return core.ParseAmount(string(a))
}

// parseMonth reads ?month=YYYY-MM, defaulting to the month of now.
func parseMonth(r *http.Request, now time.Time) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return core.DateOf(now).FirstOfMonth(), nil
	}
	t, err := time.Parse("2006-01", v)
	if err != nil {
		return core.Date{}, badRequest("month must be YYYY-MM")
	}
	return core.NewDate(t.Year(), int(t.Month()), 1), nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
