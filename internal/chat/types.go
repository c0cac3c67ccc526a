package chat

import "fmt"

// DefaultName is used when a client sends an empty display name.
const DefaultName = "Anonymous"

// MaxNameRunes caps a display name; longer names are truncated, not rejected.
const MaxNameRunes = 32

type State int32

const (
	StateConnecting State = iota
	StateActive
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Server-to-client line shapes.

func welcomeLine(name string) string {
	return fmt.Sprintf("Welcome, %s!", name)
}

func chatLine(sender, text string) string {
	return sender + ": " + text
}

func fileSharedLine(sender, file string) string {
	return fmt.Sprintf("%s [FILE_SHARED:%s]", sender, file)
}

func imageDataLine(sender, file, payload string) string {
	return fmt.Sprintf("%s [IMAGE_DATA:%s:%s]", sender, file, payload)
}

func fileDataLine(file, payload string) string {
	return fmt.Sprintf("[FILEDATA:%s:%s]", file, payload)
}

func noticeFileNotFound(file string) string {
	return "[System] File not found or no longer available: " + file
}

func noticeCorrupted(file string) string {
	return "[System] Corrupted file data: " + file
}

func noticeStoreFailed(file string) string {
	return "[System] Could not store file: " + file
}
