package domain

import (
	"errors"
	"fmt"
)

// 错误族：上层用 errors.Is/As 区分后映射成不同的响应码，
// 避免把校验、冲突、存储故障混成一个笼统报错。
var (
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrValidation            = errors.New("validation failed")
	ErrConflictDeclined      = errors.New("replace declined")
	ErrDuplicateRegistration = errors.New("already registered for this event")
	ErrReadFailed            = errors.New("store read failed")
	ErrWriteFailed           = errors.New("store write failed")
	ErrStoreTimeout          = errors.New("store round trip timed out")
)

// ReplaceRequiredError 表示同一时段已有报名，需用户确认替换后重试。
// 这是正常的交互分支，不是失败。
type ReplaceRequiredError struct {
	Existing *Registration
}

func (e *ReplaceRequiredError) Error() string {
	return fmt.Sprintf("slot %s %s already registered (event %q)", e.Existing.Date, e.Existing.StartTime, e.Existing.EventTitle)
}

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
