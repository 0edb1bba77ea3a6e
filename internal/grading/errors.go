package grading

import "errors"

// ErrConfiguration indicates the question's answer data is malformed (for
// example no option is flagged correct). This is an authoring-side bug, never
// something the student can fix.
var ErrConfiguration = errors.New("question configuration invalid")

// ErrValidation indicates the submitted answer has the wrong shape or size.
var ErrValidation = errors.New("answer validation failed")

// ErrUnsupportedType indicates the question type has no grader.
var ErrUnsupportedType = errors.New("unsupported question type")
