package tutor

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tutor/core"
)

var (
	subjectTag  = "subject"
	subjectText = "unknown subject"
)

// InitValidators registers the tutor validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(subjectTag, subjectValidation)
	core.RegisterCustomTranslation(validate, translator, subjectTag, subjectText)
}

// subjectValidation checks that the field names one of Subjects.
func subjectValidation(fl validator.FieldLevel) bool {
	_, ok := ParseSubject(fl.Field().String())
	return ok
}

func (nl *NewStudyLog) Validate(validate *validator.Validate) error {
	nl.Date = core.CleanString(nl.Date)
	nl.Subject = core.CleanString(nl.Subject)
	nl.Memo = core.CleanString(nl.Memo)

	if err := validate.Struct(nl); err != nil {
		return err
	}
	if nl.TotalMinutes() <= 0 {
		return ErrEmptyStudy
	}
	return nil
}

func (ns *NewSummary) Validate(validate *validator.Validate) error {
	ns.Date = core.CleanString(ns.Date)
	ns.StudentName = core.CleanString(ns.StudentName)
	ns.LessonContent = core.CleanString(ns.LessonContent)
	ns.HomeworkNotice = core.CleanString(ns.HomeworkNotice)
	return validate.Struct(ns)
}

func (nh *NewHomework) Validate(validate *validator.Validate) error {
	nh.Date = core.CleanString(nh.Date)
	nh.StudentName = core.CleanString(nh.StudentName)
	nh.Content = core.CleanString(nh.Content)
	return validate.Struct(nh)
}
