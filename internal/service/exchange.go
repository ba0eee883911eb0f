// Package service implements the daily mutual-evaluation protocol and the
// shared calendar cursor over the persisted AppState.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yourname/dailywords/internal"
	"github.com/yourname/dailywords/internal/session"
	"github.com/yourname/dailywords/internal/storage"
)

var validate = validator.New()

// Exchange runs every operation as a read-modify-write cycle against the one
// shared record. The mutex serializes those cycles so concurrent actions by
// the two parties cannot lose updates.
type Exchange struct {
	mu     sync.Mutex
	repo   storage.StateRepository
	logger internal.Logger
	now    func() time.Time
}

func NewExchange(repo storage.StateRepository, logger internal.Logger) *Exchange {
	return &Exchange{repo: repo, logger: logger, now: time.Now}
}

// SetClock overrides the time source. Tests only.
func (e *Exchange) SetClock(now func() time.Time) { e.now = now }

func (e *Exchange) today() string { return e.now().Format(internal.DateLayout) }

// persist writes the full record. A write failure is logged as critical and
// swallowed: the in-memory state stays authoritative for the in-flight
// request, matching the store's log-and-continue contract.
func (e *Exchange) persist(ctx context.Context, state *internal.AppState) {
	if err := e.repo.Save(ctx, state); err != nil {
		e.logger.Errorf("CRITICAL: cannot persist app state: %v", err)
	}
}

// InitResult is the full-state snapshot returned to the front end on load.
type InitResult struct {
	State               *internal.AppState
	ActiveUserKey       string
	PendingLoginUserKey string
	Calendar            MonthMatrix
}

// Initialize returns the current state for this session. A pending-login key
// set by a user switch is reported exactly once and cleared from the session.
func (e *Exchange) Initialize(ctx context.Context, sess session.Context) (session.Context, *InitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.repo.Load(ctx)
	if err != nil {
		return sess, nil, err
	}

	res := &InitResult{
		State:         state,
		ActiveUserKey: sess.ActiveUserKey,
		Calendar:      BuildMonthMatrix(state, e.now()),
	}
	if sess.ActiveUserKey == "" && internal.ValidUserKey(sess.LoginAttemptUserKey) {
		res.PendingLoginUserKey = sess.LoginAttemptUserKey
		sess.LoginAttemptUserKey = ""
	}
	return sess, res, nil
}

// Login authenticates this session as userKey. It succeeds iff the stored
// password is nil (open account) or equals the supplied password exactly.
// The failure message never reveals which condition was violated.
func (e *Exchange) Login(ctx context.Context, sess session.Context, userKey, password string) (session.Context, string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.repo.Load(ctx)
	if err != nil {
		return sess, "", err
	}

	user := state.User(userKey)
	if user == nil || (user.Password != nil && *user.Password != password) {
		return sess, "", internal.ErrAuth
	}

	sess.ActiveUserKey = userKey
	sess.LoginAttemptUserKey = ""
	state.LastActiveUserKey = userKey
	e.persist(ctx, state)
	return sess, user.Name, nil
}

// RequestSwitch clears any active identity and marks the partner as the
// pending login. With no active user the partner of the last active user is
// offered instead. This is the only path that sets the pending-login key.
func (e *Exchange) RequestSwitch(ctx context.Context, sess session.Context) (session.Context, string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sess.ActiveUserKey != "" {
		sess.LoginAttemptUserKey = internal.PartnerKey(sess.ActiveUserKey)
		sess.ActiveUserKey = ""
		return sess, sess.LoginAttemptUserKey, nil
	}

	state, err := e.repo.Load(ctx)
	if err != nil {
		return sess, "", err
	}
	sess.LoginAttemptUserKey = internal.PartnerKey(state.LastActiveUserKey)
	return sess, sess.LoginAttemptUserKey, nil
}

// SetPassword updates the active user's password. An empty string removes
// the password entirely (open account).
func (e *Exchange) SetPassword(ctx context.Context, sess session.Context, newPassword string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sess.ActiveUserKey == "" {
		return internal.ErrNotAuthenticated
	}

	state, err := e.repo.Load(ctx)
	if err != nil {
		return err
	}

	user := state.User(sess.ActiveUserKey)
	if newPassword == "" {
		user.Password = nil
	} else {
		user.Password = &newPassword
	}
	e.persist(ctx, state)
	return nil
}

// SubmitRequest is a daily evaluation as submitted by the author.
type SubmitRequest struct {
	Score int    `form:"score" json:"score" validate:"required,gte=1,lte=10"`
	Text  string `form:"evaluationText" json:"evaluationText" validate:"required"`
}

func ValidateSubmitRequest(req *SubmitRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: score must be 1-10 and text must not be empty", internal.ErrValidation)
	}
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("%w: text must not be empty", internal.ErrValidation)
	}
	return nil
}

// Submit records today's evaluation of the partner. Strictly once per
// calendar day per author, keyed by the server-observed date. The author's
// given entry and the partner's received mirror are written in one state
// mutation and one save.
func (e *Exchange) Submit(ctx context.Context, sess session.Context, req *SubmitRequest) (*internal.AppState, error) {
	if err := ValidateSubmitRequest(req); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if sess.ActiveUserKey == "" {
		return nil, internal.ErrNotAuthenticated
	}

	state, err := e.repo.Load(ctx)
	if err != nil {
		return nil, err
	}

	today := e.today()
	author := state.User(sess.ActiveUserKey)
	if _, exists := author.Given[today]; exists {
		return nil, fmt.Errorf("%w: evaluation already submitted today", internal.ErrIdempotency)
	}

	now := e.now()
	partner := state.User(internal.PartnerKey(sess.ActiveUserKey))
	author.Given[today] = internal.Evaluation{
		Score:     req.Score,
		Text:      strings.TrimSpace(req.Text),
		Timestamp: now,
	}
	partner.Received[today] = internal.ReceivedEvaluation{
		Score:           req.Score,
		Text:            strings.TrimSpace(req.Text),
		SubmitTimestamp: now,
	}

	e.persist(ctx, state)
	return state, nil
}

// MarkViewed confirms that the active user has seen today's received
// evaluation. The first call stamps the view time; later calls are no-ops
// that return the original timestamp, so the stamp never moves forward.
func (e *Exchange) MarkViewed(ctx context.Context, sess session.Context) (*internal.AppState, time.Time, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sess.ActiveUserKey == "" {
		return nil, time.Time{}, internal.ErrNotAuthenticated
	}

	state, err := e.repo.Load(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}

	today := e.today()
	user := state.User(sess.ActiveUserKey)
	rec, ok := user.Received[today]
	if !ok {
		return nil, time.Time{}, fmt.Errorf("%w: no evaluation received today", internal.ErrNotFound)
	}

	if rec.ViewedTimestamp != nil {
		return state, *rec.ViewedTimestamp, nil
	}

	viewed := e.now()
	rec.ViewedTimestamp = &viewed
	user.Received[today] = rec
	e.persist(ctx, state)
	return state, viewed, nil
}

// HasGivenToday reports whether the user already authored today's entry.
func HasGivenToday(state *internal.AppState, userKey string, today time.Time) bool {
	user := state.User(userKey)
	if user == nil {
		return false
	}
	_, ok := user.Given[today.Format(internal.DateLayout)]
	return ok
}

// ReceivedToday returns the evaluation addressed to the user for today.
func ReceivedToday(state *internal.AppState, userKey string, today time.Time) (internal.ReceivedEvaluation, bool) {
	user := state.User(userKey)
	if user == nil {
		return internal.ReceivedEvaluation{}, false
	}
	rec, ok := user.Received[today.Format(internal.DateLayout)]
	return rec, ok
}
