package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// SemesterType identifies which parity a promotion batch was computed for.
type SemesterType string

const (
	SemesterTypeOdd  SemesterType = "ODD"
	SemesterTypeEven SemesterType = "EVEN"
)

// graduatedSentinel is the wire value marking a terminal transition.
const graduatedSentinel = `"GRADUATED"`

// TransitionTarget is the destination of a transition: either a concrete
// semester or the terminal graduation sentinel. On the wire it is a plain
// number or the string "GRADUATED".
type TransitionTarget struct {
	Semester int
	Graduate bool
}

// GraduateTarget returns the terminal target value.
func GraduateTarget() TransitionTarget {
	return TransitionTarget{Graduate: true}
}

// SemesterTarget returns a target for a concrete semester.
func SemesterTarget(semester int) TransitionTarget {
	return TransitionTarget{Semester: semester}
}

// MarshalJSON implements json.Marshaler.
func (t TransitionTarget) MarshalJSON() ([]byte, error) {
	if t.Graduate {
		return []byte(graduatedSentinel), nil
	}
	return json.Marshal(t.Semester)
}

// UnmarshalJSON implements json.Unmarshaler accepting a semester number or
// the "GRADUATED" sentinel.
func (t *TransitionTarget) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte(graduatedSentinel)) {
		*t = TransitionTarget{Graduate: true}
		return nil
	}
	var semester int
	if err := json.Unmarshal(data, &semester); err != nil {
		return fmt.Errorf("transition target must be a semester number or %s: %w", graduatedSentinel, err)
	}
	*t = TransitionTarget{Semester: semester}
	return nil
}

// String renders the target for labels and logs.
func (t TransitionTarget) String() string {
	if t.Graduate {
		return "GRADUATED"
	}
	return fmt.Sprintf("Semester %d", t.Semester)
}

// Transition is an ephemeral candidate move produced by the planner and
// consumed by the executor. It is never persisted.
type Transition struct {
	From  int              `json:"from"`
	To    TransitionTarget `json:"to"`
	Label string           `json:"label,omitempty"`
}

// SemesterCount pairs a semester with the number of approved students in it.
type SemesterCount struct {
	Semester int `db:"semester" json:"semester"`
	Count    int `db:"count" json:"count"`
}

// PromotionHistory is the immutable audit record for one executed batch.
// It is appended inside the same transaction as the student mutations and
// deleted only by a successful undo; rows are never updated in place.
type PromotionHistory struct {
	ID           string         `db:"id" json:"id"`
	SemesterType SemesterType   `db:"semester_type" json:"semester_type"`
	StudentIDs   pq.StringArray `db:"student_ids" json:"student_ids"`
	Details      []byte         `db:"details" json:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// TransitionRecord is one per-transition group inside the history details
// payload: which students moved from where to where, and which were
// year-backed instead.
type TransitionRecord struct {
	From        int              `json:"from"`
	To          TransitionTarget `json:"to"`
	PromotedIDs []string         `json:"promotedIds"`
	YearBackIDs []string         `json:"yearBackIds,omitempty"`
}

// UnmarshalJSON accepts the legacy "studentIds" field name as an alias for
// "promotedIds"; rows written before the rename still decode correctly.
func (r *TransitionRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		From        int              `json:"from"`
		To          TransitionTarget `json:"to"`
		PromotedIDs []string         `json:"promotedIds"`
		LegacyIDs   []string         `json:"studentIds"`
		YearBackIDs []string         `json:"yearBackIds"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.From = raw.From
	r.To = raw.To
	r.PromotedIDs = raw.PromotedIDs
	if r.PromotedIDs == nil {
		r.PromotedIDs = raw.LegacyIDs
	}
	r.YearBackIDs = raw.YearBackIDs
	return nil
}

// EncodeDetails serialises transition records into the details column.
func EncodeDetails(records []TransitionRecord) ([]byte, error) {
	payload, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode promotion details: %w", err)
	}
	return payload, nil
}

// DecodeDetails parses the details payload of a history entry.
func (h *PromotionHistory) DecodeDetails() ([]TransitionRecord, error) {
	var records []TransitionRecord
	if err := json.Unmarshal(h.Details, &records); err != nil {
		return nil, fmt.Errorf("decode promotion details: %w", err)
	}
	return records, nil
}
