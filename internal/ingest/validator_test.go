package ingest

import (
	"errors"
	"testing"

	"quizdeck/internal/domain"
	"github.com/stretchr/testify/require"
)

const scenarioA = `{"title":"T","questions":[{"question":"Q1","options":["a","b"],"answer":0},{"question":"Q2","options":["x","y","z"],"answer":2}]}`

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		kind     domain.ValidationKind
		question int
	}{
		{name: "root array", doc: `[1,2]`, kind: domain.RootNotObject},
		{name: "root string", doc: `"quiz"`, kind: domain.RootNotObject},
		{name: "missing title", doc: `{"questions":[]}`, kind: domain.MissingTitle},
		{name: "missing questions", doc: `{"title":"T"}`, kind: domain.QuestionsNotList},
		{name: "questions object", doc: `{"title":"T","questions":{"a":1}}`, kind: domain.QuestionsNotList},
		{name: "question not object", doc: `{"title":"T","questions":["Q1"]}`, kind: domain.MissingQuestionText, question: 1},
		{name: "missing question text", doc: `{"title":"T","questions":[{"options":["a","b"],"answer":0}]}`, kind: domain.MissingQuestionText, question: 1},
		{name: "one option", doc: `{"title":"T","questions":[{"question":"Q","options":["a"],"answer":0}]}`, kind: domain.TooFewOptions, question: 1},
		{name: "options missing", doc: `{"title":"T","questions":[{"question":"Q","answer":0}]}`, kind: domain.TooFewOptions, question: 1},
		{name: "options string", doc: `{"title":"T","questions":[{"question":"Q","options":"ab","answer":0}]}`, kind: domain.TooFewOptions, question: 1},
		{name: "missing answer", doc: `{"title":"T","questions":[{"question":"Q","options":["a","b"]}]}`, kind: domain.MissingAnswer, question: 1},
		{name: "answer string", doc: `{"title":"T","questions":[{"question":"Q","options":["a","b"],"answer":"0"}]}`, kind: domain.AnswerNotInteger, question: 1},
		{name: "answer fractional", doc: `{"title":"T","questions":[{"question":"Q","options":["a","b"],"answer":0.5}]}`, kind: domain.AnswerNotInteger, question: 1},
		{name: "answer bool", doc: `{"title":"T","questions":[{"question":"Q","options":["a","b"],"answer":true}]}`, kind: domain.AnswerNotInteger, question: 1},
		{name: "answer negative", doc: `{"title":"T","questions":[{"question":"Q","options":["a","b"],"answer":-1}]}`, kind: domain.AnswerOutOfRange, question: 1},
		{name: "answer beyond int64", doc: `{"title":"T","questions":[{"question":"Q","options":["a","b"],"answer":99999999999999999999}]}`, kind: domain.AnswerOutOfRange, question: 1},
		{name: "answer below int64", doc: `{"title":"T","questions":[{"question":"Q","options":["a","b"],"answer":-99999999999999999999}]}`, kind: domain.AnswerOutOfRange, question: 1},
		{name: "answer off by one", doc: `{"title":"T","questions":[{"question":"Q","options":["a","b"],"answer":2}]}`, kind: domain.AnswerOutOfRange, question: 1},
		{name: "scenario B", doc: `{"title":"T","questions":[{"question":"Q1","options":["a","b"],"answer":0},{"question":"Q2","options":["x","y","z"],"answer":5}]}`, kind: domain.AnswerOutOfRange, question: 2},
		{name: "first failure wins", doc: `{"title":"T","questions":[{"question":"Q1","options":["a"],"answer":9},{"options":[]}]}`, kind: domain.TooFewOptions, question: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Decode([]byte(tc.doc))
			require.NoError(t, err)

			err = Validate(doc)
			require.ErrorIs(t, err, domain.ErrInvalidQuiz)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tc.kind, verr.Kind)
			require.Equal(t, tc.question, verr.Question)
		})
	}
}

func TestValidateAcceptsScenarioA(t *testing.T) {
	doc, err := Decode([]byte(scenarioA))
	require.NoError(t, err)
	require.NoError(t, Validate(doc))
}

func TestValidateIsPermissive(t *testing.T) {
	docs := []string{
		`{"title":"","questions":[]}`,
		`{"title":"T","time_limit":-30,"questions":[{"question":"","options":["",""],"answer":1}]}`,
		`{"title":"T","time_limit":"soon","questions":[{"question":"Q","options":[1,null],"answer":1}]}`,
		`{"title":5,"questions":[]}`,
		`{"title":null,"questions":[{"question":42,"options":["a","b"],"answer":0}]}`,
		`{"title":"T","extra":{"ignored":true},"questions":[{"question":"Q","options":["a","b"],"answer":0,"hint":"h"}]}`,
	}
	for _, raw := range docs {
		doc, err := Decode([]byte(raw))
		require.NoError(t, err)
		require.NoError(t, Validate(doc), raw)
	}
}

func TestMissingQuestionsAlwaysReportsQuestionsNotList(t *testing.T) {
	docs := []map[string]any{
		{"title": "T"},
		{"title": "T", "time_limit": 60},
		{"title": "T", "question": "typo", "answer": 1},
	}
	for _, doc := range docs {
		var verr *domain.ValidationError
		require.True(t, errors.As(Validate(doc), &verr))
		require.Equal(t, domain.QuestionsNotList, verr.Kind)
	}
}

func TestValidateAcceptsUndecodedNumbers(t *testing.T) {
	doc := map[string]any{
		"title": "T",
		"questions": []any{
			map[string]any{"question": "Q", "options": []any{"a", "b"}, "answer": float64(1)},
			map[string]any{"question": "Q", "options": []any{"a", "b"}, "answer": 0},
		},
	}
	require.NoError(t, Validate(doc))
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	for _, raw := range []string{``, `{"title":`, `{"title":"T"} {"title":"U"}`} {
		_, err := Decode([]byte(raw))
		require.ErrorIs(t, err, domain.ErrMalformedJSON, raw)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &domain.ValidationError{Kind: domain.AnswerOutOfRange, Question: 2}
	require.Equal(t, "question 2: answer out of range", err.Error())
	require.Equal(t, "questions must be a list", (&domain.ValidationError{Kind: domain.QuestionsNotList}).Error())
}
