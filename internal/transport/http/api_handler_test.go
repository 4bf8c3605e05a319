package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"quizdeck/internal/domain"
	"github.com/stretchr/testify/require"
)

const uploadDoc = `{"title":"Colors","time_limit":60,"questions":[{"question":"Sky?","options":["blue","green"],"answer":0},{"question":"Grass?","options":["red","green","blue"],"answer":1}]}`

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestUploadThenFetchPlayerView(t *testing.T) {
	server := newTestServer(t, RouterConfig{})

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/quizzes", uploadDoc)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var summary domain.QuizSummary
	require.NoError(t, json.Unmarshal(body, &summary))
	require.Equal(t, "Colors", summary.Title)
	require.Equal(t, 2, summary.QuestionCount)
	require.NotNil(t, summary.TimeLimit)
	require.Equal(t, 60, *summary.TimeLimit)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/quizzes/"+summary.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotContains(t, string(body), "correct")

	var view quizView
	require.NoError(t, json.Unmarshal(body, &view))
	require.Len(t, view.Questions, 2)
	require.Equal(t, "Grass?", view.Questions[1].Text)
	require.Equal(t, []string{"red", "green", "blue"}, []string{
		view.Questions[1].Options[0].Text, view.Questions[1].Options[1].Text, view.Questions[1].Options[2].Text,
	})

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/quizzes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summaries []domain.QuizSummary
	require.NoError(t, json.Unmarshal(body, &summaries))
	require.Len(t, summaries, 1)
	require.Equal(t, summary.ID, summaries[0].ID)
}

func TestUploadRejections(t *testing.T) {
	server := newTestServer(t, RouterConfig{})

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/quizzes",
		`{"title":"T","questions":[{"question":"Q1","options":["a","b"],"answer":0},{"question":"Q2","options":["x","y","z"],"answer":5}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var verr errorResponse
	require.NoError(t, json.Unmarshal(body, &verr))
	require.Equal(t, string(domain.AnswerOutOfRange), verr.Kind)
	require.Equal(t, 2, verr.Question)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/quizzes", `{"title":`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/quizzes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `[]`, string(body))
}

func TestUploadMultipartFile(t *testing.T) {
	server := newTestServer(t, RouterConfig{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "quiz.json")
	require.NoError(t, err)
	_, err = part.Write([]byte(uploadDoc))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(server.URL+"/api/quizzes", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestUploadTooLarge(t *testing.T) {
	server := newTestServer(t, RouterConfig{MaxUploadBytes: 16})

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/quizzes", uploadDoc)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestSubmitAndResult(t *testing.T) {
	server := newTestServer(t, RouterConfig{}, sampleQuiz())
	submissions := server.URL + "/api/quizzes/quiz-1/submissions"

	resp, body := doJSON(t, http.MethodPost, submissions, `{"session_id":"s1","answers":{"q1":"o2","q2":"o4"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var report domain.ScoreReport
	require.NoError(t, json.Unmarshal(body, &report))
	require.Equal(t, 1, report.Score)
	require.Equal(t, 2, report.Total)
	require.Equal(t, "s1", report.SessionID)

	resp, _ = doJSON(t, http.MethodPost, submissions, `{"session_id":"s1","answers":{"q1":"o2"}}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, submissions+"/s1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stored domain.ScoreReport
	require.NoError(t, json.Unmarshal(body, &stored))
	require.Equal(t, report, stored)

	resp, _ = doJSON(t, http.MethodGet, submissions+"/nobody", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitErrors(t *testing.T) {
	server := newTestServer(t, RouterConfig{}, sampleQuiz())
	submissions := server.URL + "/api/quizzes/quiz-1/submissions"

	resp, body := doJSON(t, http.MethodPost, submissions, `{"session_id":"s2","answers":{"q1":"o3"}}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var mismatch errorResponse
	require.NoError(t, json.Unmarshal(body, &mismatch))
	require.Equal(t, "q1", mismatch.QuestionID)
	require.Equal(t, "o3", mismatch.OptionID)

	// Nothing was recorded for the rejected session.
	resp, _ = doJSON(t, http.MethodGet, submissions+"/s2", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, submissions, `{"session_id":"s3"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, submissions, `not json`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/quizzes/missing/submissions", `{"answers":{}}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartSessionHidesAnswers(t *testing.T) {
	server := newTestServer(t, RouterConfig{}, timedQuiz(30))

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/quizzes/quiz-1/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotContains(t, string(body), "correct")

	var session sessionPayload
	require.NoError(t, json.Unmarshal(body, &session))
	require.NotEmpty(t, session.SessionID)
	require.NotNil(t, session.Deadline)
	require.Equal(t, session.StartedAt.Add(30*time.Second), *session.Deadline)
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("quizdeck_uploads_total 0"))
	})
	server := newTestServer(t, RouterConfig{Metrics: metrics})

	resp, body := doJSON(t, http.MethodGet, server.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", string(body))

	resp, body = doJSON(t, http.MethodGet, server.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "quizdeck_uploads_total")
}

func TestSubmitBodyIsCapped(t *testing.T) {
	server := newTestServer(t, RouterConfig{MaxUploadBytes: 16}, sampleQuiz())

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/quizzes/quiz-1/submissions", `{"session_id":"s1","answers":{"q1":"o2","q2":"o3"}}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/quizzes/quiz-1/submissions/s1", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
