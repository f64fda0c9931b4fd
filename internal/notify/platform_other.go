//go:build !darwin

package notify

import "os/exec"

func platformCommand() CommandFunc {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return nil
	}
	return notifySendCommand
}
