package notify

func platformCommand() CommandFunc {
	return osascriptCommand
}
