package helper

import (
	"runtime"
	"strings"
)

// GetFuncName returns the caller's function name without its import path,
// e.g. "userservice.(*UserService).UpsertUser".
func GetFuncName() string {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	name := fn.Name()
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	return name
}
