package public

import (
	"errors"

	"github.com/schoolsuite/resultpin/internal/http/handlers/shared"
	"github.com/schoolsuite/resultpin/internal/http/response"
	"github.com/schoolsuite/resultpin/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	shared.RespondError(c, code, msg, err)
}

// mappedHandlerError maps a service error to an API error response.
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var resultCheckErrorRules = []mappedHandlerError{
	{target: service.ErrCardInvalid, code: response.CodeBadRequest, msg: "invalid request"},
	{target: service.ErrInvalidPin, code: response.CodeNotFound, msg: "card not found"},
	{target: service.ErrCardDeactivated, code: response.CodeBadRequest, msg: "card has been deactivated"},
	{target: service.ErrCardExhausted, code: response.CodeBadRequest, msg: "card has no checks remaining"},
	{target: service.ErrStudentNotFound, code: response.CodeNotFound, msg: "student not found"},
	{target: service.ErrResultNotFound, code: response.CodeNotFound, msg: "result not published"},
}

func respondResultCheckError(c *gin.Context, err error) {
	respondWithMappedError(c, err, resultCheckErrorRules, response.CodeInternal, "result check failed")
}
