package entities

import (
	"time"

	"studio-system/pkg/types"
)

// JokerBalance is the courtesy reschedule credit of one student for the
// month starting at Period.
type JokerBalance struct {
	ID        uint64    `json:"id"`
	StudentID uint64    `json:"student_id"`
	Period    time.Time `json:"period"`
	Allotted  int       `json:"allotted"`
	Used      int       `json:"used"`

	types.BaseEntity
}

func (b *JokerBalance) Available() int {
	if b.Used >= b.Allotted {
		return 0
	}
	return b.Allotted - b.Used
}
