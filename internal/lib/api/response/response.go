package response

import (
	"net/http"

	"user_service/internal/apperror"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

func OK(w http.ResponseWriter, r *http.Request, status int, data any, message string) {
	render.Status(r, status)
	render.JSON(w, r, Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

func Err(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.From(err)

	render.Status(r, appErr.Status)
	render.JSON(w, r, Response{
		StatusCode: appErr.Status,
		Data:       nil,
		Message:    appErr.Message,
		Success:    false,
		Errors:     []string{appErr.Message},
	})
}

func ValidationError(w http.ResponseWriter, r *http.Request, errs validator.ValidationErrors) {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			msgs = append(msgs, "field "+err.Field()+" is required")
		case "email":
			msgs = append(msgs, "field "+err.Field()+" is not a valid email")
		default:
			msgs = append(msgs, "field "+err.Field()+" is not valid")
		}
	}

	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Response{
		StatusCode: http.StatusBadRequest,
		Data:       nil,
		Message:    "validation failed",
		Success:    false,
		Errors:     msgs,
	})
}
