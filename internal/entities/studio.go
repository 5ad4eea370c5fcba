package entities

import (
	"github.com/aarondl/null/v8"

	"studio-system/pkg/types"
)

// Studio, Instructor and Student are owned by other modules; this service
// only reads them.

type Studio struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	types.BaseEntity
}

type Instructor struct {
	ID       uint64 `json:"id"`
	FullName string `json:"full_name"`
	types.BaseEntity
}

type Student struct {
	ID       uint64      `json:"id"`
	FullName string      `json:"full_name"`
	Phone    null.String `json:"phone"`
	Status   string      `json:"status"`
	types.BaseEntity
}
