package brew

import (
	"errors"
	"fmt"

	"github.com/deixis/cellar/internal/runner"
)

// Code is a stable machine-readable error identifier surfaced to clients.
type Code string

// Error codes. The *_FAILED codes for one-shot operations mean brew ran and
// exited non-zero; the message then carries its stderr.
const (
	CodeBrewNotFound      Code = "BREW_NOT_FOUND"
	CodeInvalidName       Code = "INVALID_NAME"
	CodeInvalidKind       Code = "INVALID_KIND"
	CodeInvalidAction     Code = "INVALID_ACTION"
	CodeEmptyQuery        Code = "EMPTY_QUERY"
	CodeNoResults         Code = "NO_RESULTS"
	CodeSpawnFailed       Code = "SPAWN_FAILED"
	CodePipeFailed        Code = "STDOUT_PIPE_FAILED"
	CodeWaitFailed        Code = "WAIT_FAILED"
	CodeCommandFailed     Code = "COMMAND_FAILED"
	CodeVersionFailed     Code = "BREW_VERSION_FAILED"
	CodeListFormulaFailed Code = "BREW_LIST_FORMULA_FAILED"
	CodeListCaskFailed    Code = "BREW_LIST_CASK_FAILED"
	CodeOutdatedFormula   Code = "BREW_OUTDATED_FORMULA_FAILED"
	CodeOutdatedCask      Code = "BREW_OUTDATED_CASK_FAILED"
	CodeInfoFailed        Code = "INFO_FAILED"
	CodeDoctorFailed      Code = "DOCTOR_FAILED"
	CodeTapListFailed     Code = "TAP_LIST_FAILED"
	CodeInstallFailed     Code = "INSTALL_FAILED"
	CodeUninstallFailed   Code = "UNINSTALL_FAILED"
	CodeUpgradeFailed     Code = "UPGRADE_FAILED"
	CodeUpgradeAllFailed  Code = "UPGRADE_ALL_FAILED"
)

// Error is a brew operation failure with a client-facing code.
type Error struct {
	Code    Code
	Message string
	Err     error // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code carried by err, or CodeCommandFailed if err is
// not an *Error.
func CodeOf(err error) Code {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeCommandFailed
}

// streamError maps an executor failure onto the streaming error codes.
func streamError(err error) *Error {
	switch {
	case errors.Is(err, runner.ErrPipeUnavailable):
		return newError(CodePipeFailed, "cannot read brew output", err)
	case errors.Is(err, runner.ErrWaitFailed):
		return newError(CodeWaitFailed, "waiting for brew failed", err)
	default:
		return newError(CodeSpawnFailed, "failed to start brew", err)
	}
}
