package echoweb

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutor/core"
	"github.com/trezcool/tutor/core/tutor"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "login required")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusUnauthorized, "please check your password")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errStoreUnavailable     = echo.NewHTTPError(http.StatusServiceUnavailable, "the database cannot be reached right now")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// API requests get JSON, pages get the error template.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = core.FieldErrors(origErr, translator)
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.ConnectivityError:
			code = errStoreUnavailable.Code
			message = errStoreUnavailable.Message
			logger.Error("record store unavailable", err, getIdentity(ctx))
		default:
			switch origErr {
			case tutor.ErrInvalidCredentials, tutor.ErrDuplicatePassword:
				code = errAuthenticationFailed.Code
				message = errAuthenticationFailed.Message
			case tutor.ErrForbidden:
				code = errHttpForbidden.Code
				message = errHttpForbidden.Message
			case tutor.ErrHomeworkNotFound, tutor.ErrStudentNotFound:
				code = http.StatusNotFound
				message = origErr.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg
				logger.Error(msg, errors.Wrap(err, msg), getIdentity(ctx))
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}

		// Send response
		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else if isAPIRequest(ctx) {
			if m, ok := message.(string); ok {
				message = echo.Map{"error": m}
			}
			err = ctx.JSON(code, message)
		} else {
			err = renderError(ctx, code, message)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
