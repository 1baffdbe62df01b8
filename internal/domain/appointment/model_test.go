package appointment

import (
	"testing"
	"time"

	"github.com/smartclinic/api/internal/platform/apperror"
)

func TestParseCondition(t *testing.T) {
	if st, err := ParseCondition("future"); err != nil || st != StatusScheduled {
		t.Errorf("future = (%v, %v), want scheduled", st, err)
	}
	if st, err := ParseCondition("past"); err != nil || st != StatusCompleted {
		t.Errorf("past = (%v, %v), want completed", st, err)
	}
	if _, err := ParseCondition("upcoming"); !apperror.Is(err, apperror.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestStatusString(t *testing.T) {
	if StatusScheduled.String() != "scheduled" || StatusCompleted.String() != "completed" {
		t.Error("unexpected status strings")
	}
	if Status(9).String() != "unknown" {
		t.Error("out-of-range status should stringify as unknown")
	}
}

func TestEndTime(t *testing.T) {
	start := time.Date(2025, 9, 13, 9, 0, 0, 0, time.UTC)
	a := &Appointment{Time: start}
	if got := a.EndTime(); !got.Equal(start.Add(time.Hour)) {
		t.Errorf("EndTime = %v, want one hour after start", got)
	}
}
