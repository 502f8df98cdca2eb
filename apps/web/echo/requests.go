package echoweb

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tutor/core"
)

// nowFunc is the clock behind the dashboards and form defaults.
var nowFunc = time.Now

type (
	LoginRequest struct {
		Password string `json:"password" form:"password" validate:"required,len=4,numeric"`
	}

	ToggleHomeworkRequest struct {
		Done bool `json:"done" form:"done"`
	}

	MetricsRequest struct {
		Name  string `query:"name"`
		Month string `query:"month"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Password = core.CleanString(lr.Password)
	return validate.Struct(lr)
}

// month resolves the requested YYYY-MM month, defaulting to the current one.
func (mr *MetricsRequest) month() (time.Time, error) {
	mr.Month = core.CleanString(mr.Month)
	if mr.Month == "" {
		return nowFunc(), nil
	}
	m, err := time.Parse("2006-01", mr.Month)
	if err != nil {
		return time.Time{}, core.NewValidationError(nil, core.FieldError{Field: "month", Error: "must be formatted as YYYY-MM"})
	}
	return m, nil
}
