package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"quizdeck/internal/domain"
)

// Decode parses an uploaded document, keeping numbers as json.Number so integer
// answers can be told apart from fractional ones.
func Decode(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", domain.ErrMalformedJSON)
	}
	return doc, nil
}

// Validate checks doc against the ingestion rules in order and returns the first
// violation as a *domain.ValidationError, or nil when the document is a well-formed quiz.
func Validate(doc any) error {
	root, ok := doc.(map[string]any)
	if !ok {
		return invalid(domain.RootNotObject, 0)
	}
	if _, ok := root["title"]; !ok {
		return invalid(domain.MissingTitle, 0)
	}
	questions, ok := root["questions"].([]any)
	if !ok {
		return invalid(domain.QuestionsNotList, 0)
	}
	for i, item := range questions {
		if err := validateQuestion(item, i+1); err != nil {
			return err
		}
	}
	return nil
}

func validateQuestion(item any, index int) error {
	q, ok := item.(map[string]any)
	if !ok {
		return invalid(domain.MissingQuestionText, index)
	}
	if _, ok := q["question"]; !ok {
		return invalid(domain.MissingQuestionText, index)
	}
	options, ok := q["options"].([]any)
	if !ok || len(options) < 2 {
		return invalid(domain.TooFewOptions, index)
	}
	raw, ok := q["answer"]
	if !ok {
		return invalid(domain.MissingAnswer, index)
	}
	answer, ok := asInt(raw)
	if !ok {
		if beyondInt64(raw) {
			return invalid(domain.AnswerOutOfRange, index)
		}
		return invalid(domain.AnswerNotInteger, index)
	}
	if answer < 0 || answer >= int64(len(options)) {
		return invalid(domain.AnswerOutOfRange, index)
	}
	return nil
}

// beyondInt64 reports integer literals too large in magnitude for int64.
func beyondInt64(v any) bool {
	n, ok := v.(json.Number)
	if !ok {
		return false
	}
	_, err := strconv.ParseInt(n.String(), 10, 64)
	return errors.Is(err, strconv.ErrRange)
}

func invalid(kind domain.ValidationKind, question int) error {
	return &domain.ValidationError{Kind: kind, Question: question}
}

// asInt accepts json.Number, Go integers and whole float64 values. Booleans and strings are rejected.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.ParseInt(n.String(), 10, 64)
		return i, err == nil
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
