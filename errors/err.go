package errors

import (
	"fmt"
)

var (
	ErrInvalidConfig = fmt.Errorf("driveagent: invalid config")
	ErrNotFound      = fmt.Errorf("driveagent: not found")
	ErrDecode        = fmt.Errorf("driveagent: decode failed")
	ErrUnauthorized  = fmt.Errorf("driveagent: unauthorized")
	ErrInternal      = fmt.Errorf("driveagent: internal error")
	ErrInvalidParams = fmt.Errorf("driveagent: invalid params")
)
