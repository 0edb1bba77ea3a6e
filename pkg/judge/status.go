package judge

// Category buckets the judge's fine-grained execution statuses into the
// classes the grading pipeline cares about.
type Category string

const (
	CategoryPending      Category = "pending"
	CategoryAccepted     Category = "accepted"
	CategoryWrongAnswer  Category = "wrong_answer"
	CategoryCompileError Category = "compile_error"
	CategoryRuntimeError Category = "runtime_error"
	CategoryOther        Category = "other"
)

// Judge0 status identifiers.
const (
	statusInQueue      = 1
	statusProcessing   = 2
	statusAccepted     = 3
	statusWrongAnswer  = 4
	statusTimeLimit    = 5
	statusCompileError = 6
	statusRuntimeFirst = 7
	statusRuntimeLast  = 12
)

// categorize maps a judge status identifier onto a Category.
func categorize(statusID int) Category {
	switch {
	case statusID == statusInQueue || statusID == statusProcessing:
		return CategoryPending
	case statusID == statusAccepted:
		return CategoryAccepted
	case statusID == statusWrongAnswer:
		return CategoryWrongAnswer
	case statusID == statusCompileError:
		return CategoryCompileError
	case statusID >= statusRuntimeFirst && statusID <= statusRuntimeLast:
		return CategoryRuntimeError
	default:
		return CategoryOther
	}
}

// Terminal reports whether the category represents a finished execution.
func (c Category) Terminal() bool {
	return c != CategoryPending
}
