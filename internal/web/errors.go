package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AlekseyZapadovnikov/review-assigner/internal/domain"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Возможные значения кода ошибки.
const (
	NOCANDIDATE    ErrorResponseErrorCode = domain.CodeNoCandidate
	NOTASSIGNED    ErrorResponseErrorCode = domain.CodeNotAssigned
	NOTFOUND       ErrorResponseErrorCode = domain.CodeNotFound
	PREXISTS       ErrorResponseErrorCode = domain.CodePRExists
	PRMERGED       ErrorResponseErrorCode = domain.CodePRMerged
	TEAMEXISTS     ErrorResponseErrorCode = domain.CodeTeamExists
	USEREXISTS     ErrorResponseErrorCode = domain.CodeUserExists
	INVALIDINPUT   ErrorResponseErrorCode = domain.CodeInvalidInput
	INVALIDPAYLOAD ErrorResponseErrorCode = "INVALID_PAYLOAD"
	MISSINGPARAM   ErrorResponseErrorCode = "MISSING_PARAM"
	INTERNALERROR  ErrorResponseErrorCode = "INTERNAL_ERROR"
)

// ErrorResponseErrorCode описывает код ошибки в ответе.
type ErrorResponseErrorCode string

var requestValidator = newRequestValidator()

// writeError формирует стандартный JSON с кодом и сообщением об ошибке.
func writeError(w http.ResponseWriter, status int, code ErrorResponseErrorCode, message string) {
	resp := errorResponse{
		Error: errorBody{
			Code:    string(code),
			Message: message,
		},
	}
	writeJSON(w, status, resp)
}

// writeDomainError отвечает клиенту статусом и кодом, соответствующими ошибке ядра.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := mapDomainError(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "unmapped domain error",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err.Error(),
		)
	}
	writeError(w, status, code, msg)
}

// mapDomainError переводит доменные ошибки в HTTP-статусы и коды ответа.
// Конфликты создания команды отдаются как 400, остальные конфликты как 409.
func mapDomainError(err error) (status int, code ErrorResponseErrorCode, msg string) {
	if err == nil {
		return http.StatusOK, "", ""
	}

	var de *domain.Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, INTERNALERROR, "internal error"
	}

	code, msg = ErrorResponseErrorCode(de.Code), de.Message
	switch {
	case errors.Is(err, domain.ErrTeamExists), errors.Is(err, domain.ErrUserExists):
		return http.StatusBadRequest, code, msg
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, code, msg
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, code, msg
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, code, msg
	default:
		return http.StatusInternalServerError, INTERNALERROR, "internal error"
	}
}

// decodeRequest читает JSON-тело в dst и проверяет теги validate.
// При ошибке ответ уже записан, и функция возвращает false.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, INVALIDPAYLOAD, "invalid json payload")
		return false
	}
	if err := requestValidator.Struct(dst); err != nil {
		code, msg := describeValidation(err)
		writeError(w, http.StatusBadRequest, code, msg)
		return false
	}
	return true
}

// describeValidation собирает имена полей, не прошедших проверку. Если не хватает
// только обязательных полей, это MISSING_PARAM, иначе INVALID_PAYLOAD.
func describeValidation(err error) (ErrorResponseErrorCode, string) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return INVALIDPAYLOAD, "invalid payload"
	}

	onlyMissing := true
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() != "required" {
			onlyMissing = false
		}
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		fields = append(fields, ns)
	}
	sort.Strings(fields)

	if onlyMissing {
		return MISSINGPARAM, "missing required fields: " + strings.Join(fields, ", ")
	}
	return INVALIDPAYLOAD, "invalid fields: " + strings.Join(fields, ", ")
}

// newRequestValidator настраивает валидатор так, чтобы в ошибках были JSON-имена полей.
func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
