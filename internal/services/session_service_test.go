package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/classlens/ai-assist/internal/events"
	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/validator"
)

func newSessionFixture(t *testing.T) (*fakeRepository, *redis.Client, SessionService, SubmissionService) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := newFakeRepository()
	v := validator.New()
	submissions := NewSubmissionService(repo, testLogger(), v, events.NewMockEventPublisher())
	sessions := NewSessionService(repo, client, testLogger(), v, submissions)
	return repo, client, sessions, submissions
}

// rewindSession moves a stored session's start time into the past.
func rewindSession(t *testing.T, client *redis.Client, testUID, studentUID string, by time.Duration) {
	t.Helper()
	ctx := context.Background()
	key := sessionKey(testUID, studentUID)

	data, err := client.Get(ctx, key).Result()
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	var record sessionRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	record.StartedAt = record.StartedAt.Add(-by)
	raw, _ := json.Marshal(record)
	if err := client.Set(ctx, key, raw, time.Hour).Err(); err != nil {
		t.Fatalf("store session: %v", err)
	}
}

func TestSessionStartAndResume(t *testing.T) {
	repo, _, sessions, _ := newSessionFixture(t)
	test := seedActiveTest(t, repo, uuid.NewString())
	studentID := uuid.NewString()

	state, err := sessions.Start(context.Background(), &StartSessionRequest{TestID: test.UID}, studentID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if state.Duration != 3600 {
		t.Errorf("Duration = %d, want 3600", state.Duration)
	}
	if state.QuestionCount != 2 {
		t.Errorf("QuestionCount = %d, want 2", state.QuestionCount)
	}

	// Answer, then start again: the open session must be resumed, not reset.
	if _, err := sessions.Answer(context.Background(), test.UID, &SessionAnswerRequest{
		QuestionID: test.Questions[0].UID,
		Answer:     "a pigment",
	}, studentID); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	resumed, err := sessions.Start(context.Background(), &StartSessionRequest{TestID: test.UID}, studentID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Answers[test.Questions[0].UID] != "a pigment" {
		t.Errorf("resumed session lost answers: %+v", resumed.Answers)
	}
}

func TestSessionStartKeepsClockOnUnreadableRecord(t *testing.T) {
	repo, client, sessions, _ := newSessionFixture(t)
	test := seedActiveTest(t, repo, uuid.NewString())
	studentID := uuid.NewString()

	// A record that exists but cannot be decoded must surface an error, not
	// silently restart the student's timer.
	key := sessionKey(test.UID, studentID)
	if err := client.Set(context.Background(), key, "not json", time.Hour).Err(); err != nil {
		t.Fatalf("seed corrupt session: %v", err)
	}

	if _, err := sessions.Start(context.Background(), &StartSessionRequest{TestID: test.UID}, studentID); err == nil {
		t.Fatal("Start succeeded over an unreadable session record")
	}

	data, err := client.Get(context.Background(), key).Result()
	if err != nil {
		t.Fatalf("load session key: %v", err)
	}
	if data != "not json" {
		t.Errorf("session record overwritten with %q", data)
	}
}

func TestSessionStartRejectsInactiveTest(t *testing.T) {
	repo, _, sessions, _ := newSessionFixture(t)
	test := seedActiveTest(t, repo, uuid.NewString())
	repo.Test().UpdateStatus(context.Background(), test.UID, models.TestCompleted)

	_, err := sessions.Start(context.Background(), &StartSessionRequest{TestID: test.UID}, uuid.NewString())
	if !errors.Is(err, ErrTestNotActive) {
		t.Fatalf("err = %v, want ErrTestNotActive", err)
	}
}

func TestSessionStartRejectsAfterSubmission(t *testing.T) {
	repo, _, sessions, submissions := newSessionFixture(t)
	test := seedActiveTest(t, repo, uuid.NewString())
	studentID := uuid.NewString()

	req := &CreateSubmissionRequest{TestID: test.UID, Answers: listAnswers(t, test.Questions[0].UID, "x")}
	if _, err := submissions.Create(context.Background(), req, studentID, "Sam"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := sessions.Start(context.Background(), &StartSessionRequest{TestID: test.UID}, studentID); !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("err = %v, want ErrDuplicateSubmission", err)
	}
}

func TestSessionNavigateBounds(t *testing.T) {
	repo, _, sessions, _ := newSessionFixture(t)
	test := seedActiveTest(t, repo, uuid.NewString())
	studentID := uuid.NewString()

	if _, err := sessions.Start(context.Background(), &StartSessionRequest{TestID: test.UID}, studentID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	state, err := sessions.Navigate(context.Background(), test.UID, &SessionNavigateRequest{QuestionIndex: 1}, studentID)
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if state.CurrentQuestion != 1 {
		t.Errorf("CurrentQuestion = %d, want 1", state.CurrentQuestion)
	}

	_, err = sessions.Navigate(context.Background(), test.UID, &SessionNavigateRequest{QuestionIndex: 5}, studentID)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("out-of-range navigate err = %v, want ValidationErrors", err)
	}
}

func TestSessionAnswerAfterExpiry(t *testing.T) {
	repo, client, sessions, _ := newSessionFixture(t)
	test := seedActiveTest(t, repo, uuid.NewString())
	studentID := uuid.NewString()

	if _, err := sessions.Start(context.Background(), &StartSessionRequest{TestID: test.UID}, studentID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rewindSession(t, client, test.UID, studentID, 2*time.Hour)

	_, err := sessions.Answer(context.Background(), test.UID, &SessionAnswerRequest{
		QuestionID: test.Questions[0].UID,
		Answer:     "late",
	}, studentID)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
}

func TestSessionSubmitOrdersAndOmitsAnswers(t *testing.T) {
	repo, _, sessions, _ := newSessionFixture(t)
	test := seedActiveTest(t, repo, uuid.NewString())
	studentID := uuid.NewString()

	if _, err := sessions.Start(context.Background(), &StartSessionRequest{TestID: test.UID}, studentID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Answer only the second question.
	if _, err := sessions.Answer(context.Background(), test.UID, &SessionAnswerRequest{
		QuestionID: test.Questions[1].UID,
		Answer:     "chloroplasts",
	}, studentID); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	result, err := sessions.Submit(context.Background(), test.UID, studentID, "Sam")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.TimedOut || result.EndReason != EndReasonCompleted {
		t.Errorf("end = %q timedOut=%v, want completed/false", result.EndReason, result.TimedOut)
	}

	answers, err := result.Submission.NormalizedAnswers()
	if err != nil {
		t.Fatalf("NormalizedAnswers: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("answers = %+v, want only the answered question", answers)
	}
	if answers[0].QuestionID != test.Questions[1].UID {
		t.Errorf("answer question = %s, want %s", answers[0].QuestionID, test.Questions[1].UID)
	}
}

func TestSessionSubmitAfterExpiryClampsTime(t *testing.T) {
	repo, client, sessions, _ := newSessionFixture(t)
	test := seedActiveTest(t, repo, uuid.NewString())
	studentID := uuid.NewString()

	if _, err := sessions.Start(context.Background(), &StartSessionRequest{TestID: test.UID}, studentID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rewindSession(t, client, test.UID, studentID, 2*time.Hour)

	result, err := sessions.Submit(context.Background(), test.UID, studentID, "Sam")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.TimedOut || result.EndReason != EndReasonTimeOut {
		t.Errorf("end = %q timedOut=%v, want time_out/true", result.EndReason, result.TimedOut)
	}
	if result.Submission.TimeSpent != 3600 {
		t.Errorf("TimeSpent = %d, want clamped to 3600", result.Submission.TimeSpent)
	}
}

func TestSessionSurvivesFailedSubmit(t *testing.T) {
	repo, client, sessions, _ := newSessionFixture(t)
	test := seedActiveTest(t, repo, uuid.NewString())
	studentID := uuid.NewString()

	if _, err := sessions.Start(context.Background(), &StartSessionRequest{TestID: test.UID}, studentID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Deactivating the test makes the submission fail.
	repo.Test().UpdateStatus(context.Background(), test.UID, models.TestInactive)

	if _, err := sessions.Submit(context.Background(), test.UID, studentID, "Sam"); !errors.Is(err, ErrTestNotActive) {
		t.Fatalf("err = %v, want ErrTestNotActive", err)
	}

	// The session must still be readable so the student can retry.
	if err := client.Get(context.Background(), sessionKey(test.UID, studentID)).Err(); err != nil {
		t.Fatalf("session deleted after failed submit: %v", err)
	}
}

func TestSessionSubmitRemovesSession(t *testing.T) {
	repo, client, sessions, _ := newSessionFixture(t)
	test := seedActiveTest(t, repo, uuid.NewString())
	studentID := uuid.NewString()

	if _, err := sessions.Start(context.Background(), &StartSessionRequest{TestID: test.UID}, studentID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := sessions.Submit(context.Background(), test.UID, studentID, "Sam"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := client.Get(context.Background(), sessionKey(test.UID, studentID)).Err(); !errors.Is(err, redis.Nil) {
		t.Fatalf("session still present after submit: %v", err)
	}

	if _, err := sessions.State(context.Background(), test.UID, studentID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("State err = %v, want ErrSessionNotFound", err)
	}
}
