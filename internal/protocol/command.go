package protocol

import "strings"

type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindFile
	KindDownload
	KindQuit
	// KindMalformed is a recognised command keyword with too few fields.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindFile:
		return "file"
	case KindDownload:
		return "download"
	case KindQuit:
		return "quit"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

const (
	CmdFile     = "/file"
	CmdDownload = "/download"
	CmdQuit     = "/quit"
)

type Command struct {
	Kind    Kind
	Name    string // file name for KindFile and KindDownload
	Payload string // encoded payload for KindFile
	Text    string // raw text for KindText, keyword for KindMalformed
}

// Parse classifies one decoded inbound line.
func Parse(line string) Command {
	if strings.TrimSpace(line) == "" {
		return Command{Kind: KindEmpty}
	}

	keyword, rest, _ := strings.Cut(line, " ")
	switch keyword {
	case CmdFile:
		name, payload, ok := strings.Cut(rest, " ")
		if !ok || name == "" || payload == "" {
			return Command{Kind: KindMalformed, Text: keyword}
		}
		return Command{Kind: KindFile, Name: name, Payload: payload}
	case CmdDownload:
		if rest == "" {
			return Command{Kind: KindMalformed, Text: keyword}
		}
		return Command{Kind: KindDownload, Name: rest}
	case CmdQuit:
		if strings.TrimSpace(rest) == "" {
			return Command{Kind: KindQuit}
		}
	}
	return Command{Kind: KindText, Text: line}
}
