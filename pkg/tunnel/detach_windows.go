//go:build windows

package tunnel

import "syscall"

func detachedAttr() *syscall.SysProcAttr {
	// CREATE_NEW_PROCESS_GROUP
	return &syscall.SysProcAttr{CreationFlags: 0x00000200}
}
