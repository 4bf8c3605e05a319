package grading

import (
	"time"

	"quizdeck/internal/domain"
)

// Grade scores answers against quiz in question order.
//
// A question with no entry (or an empty option ID) counts as unanswered and wrong.
// An option that is not one of the answered question's options fails the whole call
// with a *domain.MismatchError, and an answer for a question outside the quiz fails
// with domain.ErrQuestionNotFound. Total is always the number of questions in the quiz.
func Grade(quiz domain.Quiz, answers domain.AnswerSet) (domain.ScoreReport, error) {
	for questionID := range answers {
		if _, ok := quiz.Question(questionID); !ok {
			return domain.ScoreReport{}, domain.ErrQuestionNotFound
		}
	}

	report := domain.ScoreReport{
		QuizID:  quiz.ID,
		Total:   len(quiz.Questions),
		Results: make([]domain.QuestionResult, 0, len(quiz.Questions)),
	}
	for _, question := range quiz.Questions {
		result, err := gradeQuestion(question, answers[question.ID])
		if err != nil {
			return domain.ScoreReport{}, err
		}
		if result.Correct {
			report.Score++
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}

func gradeQuestion(question domain.Question, optionID string) (domain.QuestionResult, error) {
	result := domain.QuestionResult{QuestionID: question.ID}
	if optionID == "" {
		return result, nil
	}
	selected, ok := question.Option(optionID)
	if !ok {
		return result, &domain.MismatchError{QuestionID: question.ID, OptionID: optionID}
	}
	result.OptionID = selected.ID
	result.Answered = true
	result.Correct = selected.Correct
	return result, nil
}

// Record grades answers and returns the submission to persist alongside the report.
// Both are derived from the same pass, so Replay on the stored submission reproduces the report.
func Record(quiz domain.Quiz, sessionID string, answers domain.AnswerSet, at time.Time) (domain.Submission, domain.ScoreReport, error) {
	report, err := Grade(quiz, answers)
	if err != nil {
		return domain.Submission{}, domain.ScoreReport{}, err
	}
	report.SessionID = sessionID

	submission := domain.Submission{
		SessionID:   sessionID,
		QuizID:      quiz.ID,
		Answers:     make([]domain.SubmittedAnswer, 0, len(answers)),
		SubmittedAt: at,
	}
	for _, result := range report.Results {
		if !result.Answered {
			continue
		}
		submission.Answers = append(submission.Answers, domain.SubmittedAnswer{
			QuestionID: result.QuestionID,
			OptionID:   result.OptionID,
			Correct:    result.Correct,
		})
	}
	return submission, report, nil
}

// Replay re-grades a stored submission against its quiz.
func Replay(quiz domain.Quiz, submission domain.Submission) (domain.ScoreReport, error) {
	report, err := Grade(quiz, submission.AnswerSet())
	if err != nil {
		return domain.ScoreReport{}, err
	}
	report.SessionID = submission.SessionID
	return report, nil
}
