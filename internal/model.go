package internal

import "time"

// DateLayout is the key format for daily entries and the calendar cursor.
const DateLayout = "2006-01-02"

// The two fixed account keys. No other user keys ever exist.
const (
	UserKey1 = "user1"
	UserKey2 = "user2"
)

// ValidUserKey reports whether key names one of the two accounts.
func ValidUserKey(key string) bool {
	return key == UserKey1 || key == UserKey2
}

// PartnerKey returns the other account of the pair.
func PartnerKey(key string) string {
	if key == UserKey1 {
		return UserKey2
	}
	return UserKey1
}

// Evaluation is a daily note authored by a user about their partner,
// stored under the author's Given map.
type Evaluation struct {
	Score     int       `json:"score"` // 1–10 scale
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ReceivedEvaluation mirrors the partner's submission under the recipient's
// Received map. ViewedTimestamp stays nil until the recipient confirms a view
// and is never cleared afterwards.
type ReceivedEvaluation struct {
	Score           int        `json:"score"`
	Text            string     `json:"text"`
	SubmitTimestamp time.Time  `json:"submitTimestamp"`
	ViewedTimestamp *time.Time `json:"viewedTimestamp"`
}

// UserRecord holds one account. A nil Password means the account is open and
// any login attempt for it succeeds. Given and Received are keyed by calendar
// date (DateLayout), one entry per day at most.
type UserRecord struct {
	Name     string                        `json:"name"`
	Password *string                       `json:"password"`
	Given    map[string]Evaluation         `json:"given"`
	Received map[string]ReceivedEvaluation `json:"received"`
}

// AppState is the single shared persisted record. CalendarDate is one cursor
// shared by both accounts and all sessions: any day inside the month the
// calendar currently displays.
type AppState struct {
	User1             *UserRecord `json:"user1"`
	User2             *UserRecord `json:"user2"`
	LastActiveUserKey string      `json:"lastActiveUserKey"`
	CalendarDate      string      `json:"calendarDate"`
}

// User resolves a user key to its record. Returns nil for unknown keys.
func (s *AppState) User(key string) *UserRecord {
	switch key {
	case UserKey1:
		return s.User1
	case UserKey2:
		return s.User2
	}
	return nil
}

func NewUserRecord(name string) *UserRecord {
	return &UserRecord{
		Name:     name,
		Given:    make(map[string]Evaluation),
		Received: make(map[string]ReceivedEvaluation),
	}
}

// DefaultState synthesizes the first-run record: two open accounts, user1 as
// the last active user and the calendar cursor on today.
func DefaultState(user1Name, user2Name string, today time.Time) *AppState {
	return &AppState{
		User1:             NewUserRecord(user1Name),
		User2:             NewUserRecord(user2Name),
		LastActiveUserKey: UserKey1,
		CalendarDate:      today.Format(DateLayout),
	}
}

// Normalize backfills any top-level field a previously persisted record may
// lack, so the schema can grow without migration code.
func (s *AppState) Normalize(user1Name, user2Name string, today time.Time) {
	if s.User1 == nil {
		s.User1 = NewUserRecord(user1Name)
	}
	if s.User2 == nil {
		s.User2 = NewUserRecord(user2Name)
	}
	for _, u := range []*UserRecord{s.User1, s.User2} {
		if u.Given == nil {
			u.Given = make(map[string]Evaluation)
		}
		if u.Received == nil {
			u.Received = make(map[string]ReceivedEvaluation)
		}
	}
	if !ValidUserKey(s.LastActiveUserKey) {
		s.LastActiveUserKey = UserKey1
	}
	if _, err := time.Parse(DateLayout, s.CalendarDate); err != nil {
		s.CalendarDate = today.Format(DateLayout)
	}
}
