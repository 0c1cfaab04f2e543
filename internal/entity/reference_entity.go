package entity

import "time"

// OriginKind names a foreign content source a reference points into.
type OriginKind string

const (
	OriginDocument OriginKind = "note"
	OriginTextbook OriginKind = "textbook"
	OriginExam     OriginKind = "exam"
	OriginFile     OriginKind = "file"
)

type PreviewKind string

const (
	PreviewNone     PreviewKind = "none"
	PreviewPDF      PreviewKind = "pdf"
	PreviewMarkdown PreviewKind = "markdown"
	PreviewImage    PreviewKind = "image"
	PreviewExam     PreviewKind = "exam"
)

type ReferenceNode struct {
	Id             string
	OriginKind     OriginKind
	OriginId       string
	Title          string
	PreviewKind    PreviewKind
	ParentId       string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

type ValidationState string

const (
	ValidationUnchecked ValidationState = "unchecked"
	ValidationValid     ValidationState = "valid"
	ValidationInvalid   ValidationState = "invalid"
)

type ValidationEntry struct {
	ReferenceId string
	State       ValidationState
	CheckedAt   time.Time
}

// Tristate answers "is this reference invalid?" without defaulting unchecked
// references to either side.
type Tristate int

const (
	Unknown Tristate = iota
	False
	True
)

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}
