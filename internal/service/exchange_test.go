package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/dailywords/internal"
	"github.com/yourname/dailywords/internal/session"
	"github.com/yourname/dailywords/internal/storage"
)

var testClock = time.Date(2026, 8, 28, 15, 4, 5, 0, time.UTC)

func newTestExchange(t *testing.T) (*Exchange, *storage.MemoryStore) {
	t.Helper()
	repo := storage.NewMemoryStore("Alice", "Bob")
	ex := NewExchange(repo, internal.NopLogger{})
	ex.SetClock(func() time.Time { return testClock })
	return ex, repo
}

func loginAs(t *testing.T, ex *Exchange, key string) session.Context {
	t.Helper()
	sess, _, err := ex.Login(context.Background(), session.Context{}, key, "")
	require.NoError(t, err)
	return sess
}

func TestLoginOpenAccount(t *testing.T) {
	ex, _ := newTestExchange(t)

	sess, name, err := ex.Login(context.Background(), session.Context{}, internal.UserKey1, "")
	require.NoError(t, err)
	assert.Equal(t, internal.UserKey1, sess.ActiveUserKey)
	assert.Equal(t, "Alice", name)
}

func TestLoginPasswordChecks(t *testing.T) {
	ex, _ := newTestExchange(t)
	ctx := context.Background()

	sess := loginAs(t, ex, internal.UserKey1)
	require.NoError(t, ex.SetPassword(ctx, sess, "hunter2"))

	// Wrong password rejected, right password accepted.
	_, _, err := ex.Login(ctx, session.Context{}, internal.UserKey1, "nope")
	assert.ErrorIs(t, err, internal.ErrAuth)

	_, name, err := ex.Login(ctx, session.Context{}, internal.UserKey1, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	// Unknown keys never authenticate, with the same message as a bad password.
	_, _, err = ex.Login(ctx, session.Context{}, "user3", "")
	assert.ErrorIs(t, err, internal.ErrAuth)
}

func TestLoginRecordsLastActiveUser(t *testing.T) {
	ex, repo := newTestExchange(t)

	loginAs(t, ex, internal.UserKey2)

	state, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, internal.UserKey2, state.LastActiveUserKey)
}

func TestSetPasswordRequiresActiveUser(t *testing.T) {
	ex, _ := newTestExchange(t)
	err := ex.SetPassword(context.Background(), session.Context{}, "x")
	assert.ErrorIs(t, err, internal.ErrNotAuthenticated)
}

func TestSetPasswordEmptyStringMeansOpen(t *testing.T) {
	ex, repo := newTestExchange(t)
	ctx := context.Background()
	sess := loginAs(t, ex, internal.UserKey1)

	require.NoError(t, ex.SetPassword(ctx, sess, "hunter2"))
	state, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, state.User1.Password)
	assert.Equal(t, "hunter2", *state.User1.Password)

	require.NoError(t, ex.SetPassword(ctx, sess, ""))
	state, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, state.User1.Password)
}

func TestSubmitMirrorsGivenAndReceived(t *testing.T) {
	ex, repo := newTestExchange(t)
	ctx := context.Background()
	sess := loginAs(t, ex, internal.UserKey1)

	state, err := ex.Submit(ctx, sess, &SubmitRequest{Score: 8, Text: "Good day"})
	require.NoError(t, err)

	today := testClock.Format(internal.DateLayout)
	given, ok := state.User1.Given[today]
	require.True(t, ok)
	received, ok := state.User2.Received[today]
	require.True(t, ok)

	assert.Equal(t, given.Score, received.Score)
	assert.Equal(t, given.Text, received.Text)
	assert.Equal(t, 8, given.Score)
	assert.Equal(t, "Good day", given.Text)
	assert.Nil(t, received.ViewedTimestamp)

	// Both halves must be in the same persisted document.
	persisted, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, persisted.User1.Given, today)
	assert.Contains(t, persisted.User2.Received, today)
}

func TestSubmitValidation(t *testing.T) {
	ex, _ := newTestExchange(t)
	ctx := context.Background()
	sess := loginAs(t, ex, internal.UserKey1)

	for _, req := range []*SubmitRequest{
		{Score: 0, Text: "x"},
		{Score: 11, Text: "x"},
		{Score: 5, Text: ""},
		{Score: 5, Text: "   "},
	} {
		_, err := ex.Submit(ctx, sess, req)
		assert.ErrorIs(t, err, internal.ErrValidation)
	}
}

func TestSubmitRequiresActiveUser(t *testing.T) {
	ex, _ := newTestExchange(t)
	_, err := ex.Submit(context.Background(), session.Context{}, &SubmitRequest{Score: 5, Text: "x"})
	assert.ErrorIs(t, err, internal.ErrNotAuthenticated)
}

func TestSecondSubmitSameDayRejected(t *testing.T) {
	ex, repo := newTestExchange(t)
	ctx := context.Background()
	sess := loginAs(t, ex, internal.UserKey1)

	_, err := ex.Submit(ctx, sess, &SubmitRequest{Score: 8, Text: "Good day"})
	require.NoError(t, err)

	_, err = ex.Submit(ctx, sess, &SubmitRequest{Score: 5, Text: "again"})
	assert.ErrorIs(t, err, internal.ErrIdempotency)

	// Existing data untouched.
	state, err := repo.Load(ctx)
	require.NoError(t, err)
	today := testClock.Format(internal.DateLayout)
	assert.Equal(t, 8, state.User1.Given[today].Score)
	assert.Equal(t, "Good day", state.User1.Given[today].Text)
}

func TestSubmitAllowedNextDay(t *testing.T) {
	ex, _ := newTestExchange(t)
	ctx := context.Background()
	sess := loginAs(t, ex, internal.UserKey1)

	_, err := ex.Submit(ctx, sess, &SubmitRequest{Score: 8, Text: "Good day"})
	require.NoError(t, err)

	ex.SetClock(func() time.Time { return testClock.AddDate(0, 0, 1) })
	_, err = ex.Submit(ctx, sess, &SubmitRequest{Score: 6, Text: "next day"})
	assert.NoError(t, err)
}

func TestMarkViewedWithoutSubmission(t *testing.T) {
	ex, _ := newTestExchange(t)
	sess := loginAs(t, ex, internal.UserKey2)

	_, _, err := ex.MarkViewed(context.Background(), sess)
	assert.ErrorIs(t, err, internal.ErrNotFound)
}

func TestMarkViewedIsIdempotent(t *testing.T) {
	ex, _ := newTestExchange(t)
	ctx := context.Background()

	sess1 := loginAs(t, ex, internal.UserKey1)
	_, err := ex.Submit(ctx, sess1, &SubmitRequest{Score: 8, Text: "Good day"})
	require.NoError(t, err)

	sess2 := loginAs(t, ex, internal.UserKey2)
	state, first, err := ex.MarkViewed(ctx, sess2)
	require.NoError(t, err)
	today := testClock.Format(internal.DateLayout)
	require.NotNil(t, state.User2.Received[today].ViewedTimestamp)

	// Later calls return the original stamp and never advance it.
	ex.SetClock(func() time.Time { return testClock.Add(2 * time.Hour) })
	_, second, err := ex.MarkViewed(ctx, sess2)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestMarkViewedOnlyAffectsRecipient(t *testing.T) {
	ex, repo := newTestExchange(t)
	ctx := context.Background()

	sess1 := loginAs(t, ex, internal.UserKey1)
	_, err := ex.Submit(ctx, sess1, &SubmitRequest{Score: 8, Text: "Good day"})
	require.NoError(t, err)

	// The author has received nothing today, so their own mark-viewed fails.
	_, _, err = ex.MarkViewed(ctx, sess1)
	assert.ErrorIs(t, err, internal.ErrNotFound)

	state, err := repo.Load(ctx)
	require.NoError(t, err)
	today := testClock.Format(internal.DateLayout)
	assert.Nil(t, state.User2.Received[today].ViewedTimestamp)
}

func TestRequestSwitchHandshake(t *testing.T) {
	ex, _ := newTestExchange(t)
	ctx := context.Background()

	sess := loginAs(t, ex, internal.UserKey1)
	sess, pending, err := ex.RequestSwitch(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, sess.ActiveUserKey)
	assert.Equal(t, internal.UserKey2, pending)
	assert.Equal(t, internal.UserKey2, sess.LoginAttemptUserKey)

	// Logging in as the offered partner completes the handshake.
	sess, name, err := ex.Login(ctx, sess, internal.UserKey2, "")
	require.NoError(t, err)
	assert.Equal(t, internal.UserKey2, sess.ActiveUserKey)
	assert.Empty(t, sess.LoginAttemptUserKey)
	assert.Equal(t, "Bob", name)
}

func TestRequestSwitchAnonymousUsesLastActiveUser(t *testing.T) {
	ex, _ := newTestExchange(t)
	ctx := context.Background()

	loginAs(t, ex, internal.UserKey2) // lastActiveUserKey becomes user2

	sess, pending, err := ex.RequestSwitch(ctx, session.Context{})
	require.NoError(t, err)
	assert.Equal(t, internal.UserKey1, pending)
	assert.Equal(t, internal.UserKey1, sess.LoginAttemptUserKey)
}

func TestInitializeReportsPendingLoginOnce(t *testing.T) {
	ex, _ := newTestExchange(t)
	ctx := context.Background()

	sess := loginAs(t, ex, internal.UserKey1)
	sess, _, err := ex.RequestSwitch(ctx, sess)
	require.NoError(t, err)

	sess, res, err := ex.Initialize(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, internal.UserKey2, res.PendingLoginUserKey)
	assert.Empty(t, sess.LoginAttemptUserKey)

	// One-shot: the second initialize no longer reports it.
	_, res, err = ex.Initialize(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, res.PendingLoginUserKey)
}

func TestInitializeKeepsPendingWhileAuthenticated(t *testing.T) {
	ex, _ := newTestExchange(t)

	sess := loginAs(t, ex, internal.UserKey1)
	sess, res, err := ex.Initialize(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, internal.UserKey1, res.ActiveUserKey)
	assert.Empty(t, res.PendingLoginUserKey)
	assert.Equal(t, internal.UserKey1, sess.ActiveUserKey)
}

func TestFreshStoreScenario(t *testing.T) {
	ex, _ := newTestExchange(t)
	ctx := context.Background()

	// Fresh store: user1 logs in with no password.
	sess, _, err := ex.Login(ctx, session.Context{}, internal.UserKey1, "")
	require.NoError(t, err)

	_, err = ex.Submit(ctx, sess, &SubmitRequest{Score: 8, Text: "Good day"})
	require.NoError(t, err)

	_, err = ex.Submit(ctx, sess, &SubmitRequest{Score: 5, Text: "again"})
	assert.ErrorIs(t, err, internal.ErrIdempotency)

	// user2 received user1's submission, so their mark-viewed succeeds
	// even though user2 has submitted nothing yet.
	sess, _, err = ex.RequestSwitch(ctx, sess)
	require.NoError(t, err)
	sess, _, err = ex.Login(ctx, sess, internal.UserKey2, "")
	require.NoError(t, err)
	_, _, err = ex.MarkViewed(ctx, sess)
	require.NoError(t, err)

	// user1 has received nothing today, so their mark-viewed fails.
	sess, _, err = ex.RequestSwitch(ctx, sess)
	require.NoError(t, err)
	sess, _, err = ex.Login(ctx, sess, internal.UserKey1, "")
	require.NoError(t, err)
	_, _, err = ex.MarkViewed(ctx, sess)
	assert.ErrorIs(t, err, internal.ErrNotFound)
}

func TestQueryHelpers(t *testing.T) {
	ex, repo := newTestExchange(t)
	ctx := context.Background()
	sess := loginAs(t, ex, internal.UserKey1)

	state, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.False(t, HasGivenToday(state, internal.UserKey1, testClock))
	_, ok := ReceivedToday(state, internal.UserKey2, testClock)
	assert.False(t, ok)

	state, err = ex.Submit(ctx, sess, &SubmitRequest{Score: 7, Text: "ok"})
	require.NoError(t, err)
	assert.True(t, HasGivenToday(state, internal.UserKey1, testClock))
	rec, ok := ReceivedToday(state, internal.UserKey2, testClock)
	require.True(t, ok)
	assert.Equal(t, 7, rec.Score)

	assert.False(t, HasGivenToday(state, "user3", testClock))
}

func TestPersistFailureDoesNotFailRequest(t *testing.T) {
	ex, repo := newTestExchange(t)
	ctx := context.Background()
	sess := loginAs(t, ex, internal.UserKey1)

	repo.FailSaves = true
	state, err := ex.Submit(ctx, sess, &SubmitRequest{Score: 8, Text: "Good day"})
	require.NoError(t, err)

	// In-memory state stays authoritative for the in-flight request.
	today := testClock.Format(internal.DateLayout)
	assert.Contains(t, state.User1.Given, today)
}
