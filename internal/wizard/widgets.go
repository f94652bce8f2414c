package wizard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// WidgetKind names the input widget the dashboard renders for a step. The set
// is closed; the engine only ever exchanges values with whichever widget the
// host renders.
type WidgetKind string

const (
	WidgetText         WidgetKind = "text"
	WidgetDate         WidgetKind = "date"
	WidgetSingleSelect WidgetKind = "single-select"
	WidgetNumeric      WidgetKind = "numeric"
	WidgetPerformance  WidgetKind = "performance"
)

func (k WidgetKind) valid() bool {
	switch k {
	case WidgetText, WidgetDate, WidgetSingleSelect, WidgetNumeric, WidgetPerformance:
		return true
	}
	return false
}

const (
	storageDateLayout = "2006-01-02"
	displayDateLayout = "02-01-2006"

	minClientAge = 14
	maxClientAge = 100

	maxPerformanceReps = 10000
)

// Value is an answer held in FormState.
type Value interface {
	isValue()
}

type TextValue string

type NumberValue float64

type PerformanceValue struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

func (TextValue) isValue()        {}
func (NumberValue) isValue()      {}
func (PerformanceValue) isValue() {}

type FormState map[Field]Value

func (f FormState) Clone() FormState {
	out := make(FormState, len(f))
	for field, value := range f {
		out[field] = value
	}
	return out
}

// AnswerError is returned when a widget rejects a raw answer.
type AnswerError struct {
	Field   Field
	Message string
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *AnswerError) Unwrap() error {
	return ErrInvalidAnswer
}

// Decode turns a raw answer from the dashboard into the step's value type.
// Blank answers decode to a zero value so the validator can report them as
// missing; malformed answers fail with *AnswerError.
func (s Step) Decode(raw json.RawMessage, now time.Time) (Value, error) {
	switch s.Widget {
	case WidgetText:
		text, err := s.decodeString(raw)
		if err != nil {
			return nil, err
		}
		return TextValue(text), nil
	case WidgetDate:
		return s.decodeDate(raw, now)
	case WidgetSingleSelect:
		return s.decodeSelect(raw)
	case WidgetNumeric:
		return s.decodeNumber(raw)
	case WidgetPerformance:
		return s.decodePerformance(raw)
	default:
		return nil, s.reject("unsupported widget %q", s.Widget)
	}
}

func (s Step) reject(format string, args ...any) *AnswerError {
	return &AnswerError{Field: s.Field, Message: fmt.Sprintf(format, args...)}
}

func (s Step) decodeString(raw json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", s.reject("must be a string")
	}
	return text, nil
}

func (s Step) decodeDate(raw json.RawMessage, now time.Time) (Value, error) {
	text, err := s.decodeString(raw)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return TextValue(""), nil
	}

	date, ok := parseDate(text)
	if !ok {
		return nil, s.reject("must be a date in yyyy-mm-dd or dd-mm-yyyy format")
	}
	earliest := time.Date(now.Year()-maxClientAge, time.January, 1, 0, 0, 0, 0, time.UTC)
	if date.After(now) || date.Before(earliest) {
		return nil, s.reject("must be a date between %d and today", earliest.Year())
	}
	if date.Year() > now.Year()-minClientAge {
		return nil, s.reject("you must be at least %d years old", minClientAge)
	}
	return TextValue(date.Format(storageDateLayout)), nil
}

func (s Step) decodeSelect(raw json.RawMessage) (Value, error) {
	text, err := s.decodeString(raw)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return TextValue(""), nil
	}

	fold := cases.Fold()
	want := fold.String(text)
	for _, option := range s.Options {
		if fold.String(option) == want {
			return TextValue(option), nil
		}
	}
	return nil, s.reject("must be one of: %s", strings.Join(s.Options, ", "))
}

func (s Step) decodeNumber(raw json.RawMessage) (Value, error) {
	number, err := parseNumber(raw)
	if err != nil {
		return nil, s.reject("must be a number")
	}
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return nil, s.reject("must be a finite number")
	}
	if number == 0 {
		return NumberValue(0), nil
	}
	if number < 0 {
		return nil, s.reject("must be greater than 0")
	}
	if s.Integer && number != math.Trunc(number) {
		return nil, s.reject("must be a whole number")
	}
	if s.Min > 0 && number < s.Min {
		return nil, s.reject("must be at least %s", formatNumber(s.Min))
	}
	if s.Max > 0 && number > s.Max {
		return nil, s.reject("must be at most %s", formatNumber(s.Max))
	}
	return NumberValue(number), nil
}

func (s Step) decodePerformance(raw json.RawMessage) (Value, error) {
	var payload struct {
		Weight *float64 `json:"weight"`
		Reps   *float64 `json:"reps"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, s.reject("must be an object with weight and reps")
	}
	if payload.Weight == nil || payload.Reps == nil {
		return nil, s.reject("weight and reps are required")
	}
	if *payload.Weight < 0 || *payload.Reps < 0 {
		return nil, s.reject("weight and reps must not be negative")
	}
	if *payload.Reps != math.Trunc(*payload.Reps) {
		return nil, s.reject("reps must be a whole number")
	}
	if *payload.Reps > maxPerformanceReps {
		return nil, s.reject("reps must be at most %d", maxPerformanceReps)
	}
	return PerformanceValue{Weight: *payload.Weight, Reps: int(*payload.Reps)}, nil
}

func parseNumber(raw json.RawMessage) (float64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return 0, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return 0, nil
		}
		return strconv.ParseFloat(text, 64)
	}
	var number float64
	err := json.Unmarshal(trimmed, &number)
	return number, err
}

func parseDate(text string) (time.Time, bool) {
	for _, layout := range []string{storageDateLayout, displayDateLayout} {
		if date, err := time.Parse(layout, text); err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}

func formatNumber(number float64) string {
	return strconv.FormatFloat(number, 'f', -1, 64)
}
