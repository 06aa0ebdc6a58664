// Package domain defines the catalog entries: departments and categories share one shape
package domain

// Kind names one catalog collection
type Kind struct {
	Collection string
	Label      string
}

var (
	Departments = Kind{Collection: "departments", Label: "department"}
	Categories  = Kind{Collection: "categories", Label: "category"}
)

// Field names in stored documents
const (
	FieldName           = "name"
	FieldNameNormalized = "nameNormalized"
)

// Entry is a department or a category. NameNormalized is derived on every write.
type Entry struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	NameNormalized string `json:"nameNormalized"`
}

type (
	Department = Entry
	Category   = Entry
)

// Input is the caller supplied part of an Entry
type Input struct {
	ID   string `json:"id,omitempty" validate:"omitempty,max=128"`
	Name string `json:"name" validate:"required,notblank,max=120"`
}
