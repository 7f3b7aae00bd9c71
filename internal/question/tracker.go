package question

import "time"

// Record is the lifecycle of one asked question: created on first ask,
// clarificationCount incremented on repeat asks, AnswerReceived flipped on
// the next user turn.
type Record struct {
	QuestionID         string    `json:"questionId"`
	AskedAt            time.Time `json:"askedAt"`
	AnswerReceived     bool      `json:"answerReceived"`
	ClarificationCount int       `json:"clarificationCount"`
}

// Progress summarizes one phase; derived, recomputed on every ask.
type Progress struct {
	Started            bool `json:"started"`
	Completed          bool `json:"completed"`
	QuestionsAsked     int  `json:"questionsAsked"`
	QuestionsRemaining int  `json:"questionsRemaining"`
}

// Tracker holds the asked-question records and the current phase. It is a
// plain serializable value; all methods mutate in place and are not
// goroutine-safe (callers serialize turns per conversation).
type Tracker struct {
	Records      []Record `json:"questionsAsked"`
	CurrentPhase Phase    `json:"currentPhase"`
}

// NewTracker starts at the first phase with no questions asked.
func NewTracker() Tracker {
	return Tracker{CurrentPhase: Phases()[0]}
}

// MarkAsked records that the question was asked at now. Re-asking an already
// recorded question increments its clarification counter instead of
// duplicating the record. Asking a question from a later phase advances the
// current phase; an earlier-phase question never regresses it. Unknown
// question ids are recorded as-is so a caller-defined question still gets a
// lifecycle record.
func (t *Tracker) MarkAsked(id string, now time.Time) {
	for i := range t.Records {
		if t.Records[i].QuestionID == id {
			t.Records[i].ClarificationCount++
			t.Records[i].AskedAt = now
			t.Records[i].AnswerReceived = false
			return
		}
	}
	t.Records = append(t.Records, Record{QuestionID: id, AskedAt: now})
	if q, ok := Lookup(id); ok {
		t.advancePhase(q.Phase)
	}
}

// MarkLastAnswered flips AnswerReceived on the most recently asked question
// that is still waiting for an answer. No-op when nothing is pending.
func (t *Tracker) MarkLastAnswered() {
	for i := len(t.Records) - 1; i >= 0; i-- {
		if !t.Records[i].AnswerReceived {
			t.Records[i].AnswerReceived = true
			return
		}
	}
}

// Pending returns the most recently asked question still waiting for an
// answer.
func (t *Tracker) Pending() (string, bool) {
	for i := len(t.Records) - 1; i >= 0; i-- {
		if !t.Records[i].AnswerReceived {
			return t.Records[i].QuestionID, true
		}
	}
	return "", false
}

// Asked reports whether the question has ever been asked.
func (t *Tracker) Asked(id string) bool {
	_, ok := t.record(id)
	return ok
}

// Answered reports whether the question was asked and answered.
func (t *Tracker) Answered(id string) bool {
	r, ok := t.record(id)
	return ok && r.AnswerReceived
}

func (t *Tracker) record(id string) (Record, bool) {
	for _, r := range t.Records {
		if r.QuestionID == id {
			return r, true
		}
	}
	return Record{}, false
}

// advancePhase moves the current phase forward only.
func (t *Tracker) advancePhase(p Phase) {
	if PhaseIndex(p) > PhaseIndex(t.CurrentPhase) {
		t.CurrentPhase = p
	}
}

// PhaseProgress recomputes per-phase progress from the records and catalog.
func (t *Tracker) PhaseProgress() map[Phase]Progress {
	perPhase := make(map[Phase][]Question)
	for _, q := range Catalog() {
		perPhase[q.Phase] = append(perPhase[q.Phase], q)
	}
	out := make(map[Phase]Progress, len(Phases()))
	for _, p := range Phases() {
		questions := perPhase[p]
		asked := 0
		for _, q := range questions {
			if t.Asked(q.ID) {
				asked++
			}
		}
		out[p] = Progress{
			Started:            asked > 0,
			Completed:          len(questions) > 0 && asked == len(questions),
			QuestionsAsked:     asked,
			QuestionsRemaining: len(questions) - asked,
		}
	}
	return out
}
