package domain

import (
	"errors"
	"fmt"
)

// Виды ошибок ядра. Любая доменная ошибка относится ровно к одному из них.
var (
	ErrValidation = errors.New("VALIDATION")
	ErrNotFound   = errors.New("NOT_FOUND")
	ErrConflict   = errors.New("CONFLICT")
)

// Машинные коды ошибок, которые видит клиент.
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
	CodeTeamExists   = "TEAM_EXISTS"
	CodeUserExists   = "USER_EXISTS"
	CodePRExists     = "PR_EXISTS"
	CodePRMerged     = "PR_MERGED"
	CodeNotAssigned  = "NOT_ASSIGNED"
	CodeNoCandidate  = "NO_CANDIDATE"
)

// Error описывает доменную ошибку: вид, код и человекочитаемое сообщение.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap отдаёт вид ошибки, чтобы работал errors.Is(err, domain.ErrConflict).
func (e *Error) Unwrap() error {
	return e.Kind
}

// Is сравнивает доменные ошибки по коду, сообщение при этом не учитывается.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// Сентинельные ошибки для сравнения через errors.Is.
var (
	ErrTeamExists  = &Error{Kind: ErrConflict, Code: CodeTeamExists, Message: "team already exists"}
	ErrUserExists  = &Error{Kind: ErrConflict, Code: CodeUserExists, Message: "user already belongs to a team"}
	ErrPRExists    = &Error{Kind: ErrConflict, Code: CodePRExists, Message: "pull request already exists"}
	ErrPRMerged    = &Error{Kind: ErrConflict, Code: CodePRMerged, Message: "pull request is already merged"}
	ErrNotAssigned = &Error{Kind: ErrConflict, Code: CodeNotAssigned, Message: "reviewer is not assigned"}
	ErrNoCandidate = &Error{Kind: ErrConflict, Code: CodeNoCandidate, Message: "no eligible reviewer"}
)

// CodeOf возвращает машинный код доменной ошибки или пустую строку.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// NewValidationError сообщает о некорректных входных данных.
func NewValidationError(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError возвращает ошибку отсутствия переданного ресурса.
func NewNotFoundError(resource string) error {
	return &Error{Kind: ErrNotFound, Code: CodeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// NewTeamExistsError возвращает ошибку о том, что команда с таким названием уже существует.
func NewTeamExistsError(teamName string) error {
	return &Error{Kind: ErrConflict, Code: CodeTeamExists, Message: fmt.Sprintf("team %s already exists", teamName)}
}

// NewUserExistsError сообщает, что пользователь уже состоит в другой команде.
func NewUserExistsError(userID, teamName string) error {
	return &Error{Kind: ErrConflict, Code: CodeUserExists, Message: fmt.Sprintf("user %s already belongs to team %s", userID, teamName)}
}

// NewPRExistsError сигнализирует, что Pull Request с таким идентификатором уже сохранён.
func NewPRExistsError(prID string) error {
	return &Error{Kind: ErrConflict, Code: CodePRExists, Message: fmt.Sprintf("pull request %s already exists", prID)}
}

// NewPRMergedError сообщает, что указанный Pull Request уже замержен.
func NewPRMergedError(prID string) error {
	return &Error{Kind: ErrConflict, Code: CodePRMerged, Message: fmt.Sprintf("pull request %s is already merged", prID)}
}

// NewNotAssignedError используется, когда пользователь не является текущим ревьюером PR.
func NewNotAssignedError(prID, userID string) error {
	return &Error{Kind: ErrConflict, Code: CodeNotAssigned, Message: fmt.Sprintf("user %s is not the reviewer of pull request %s", userID, prID)}
}

// NewNoCandidateError сообщает, что не удалось найти доступного ревьюера для PR.
func NewNoCandidateError(prID string) error {
	return &Error{Kind: ErrConflict, Code: CodeNoCandidate, Message: fmt.Sprintf("no candidate reviewer available for pull request %s", prID)}
}
