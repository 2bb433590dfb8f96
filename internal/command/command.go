package command

import "strings"

// Command is one parsed input line. The set is closed: Help, Join, List or
// Chat.
type Command interface{ isCommand() }

// Help requests the instruction text. Malformed commands also parse to Help,
// since the reply is the same usage text either way.
type Help struct{}

// Join moves the session into a room, creating it on first mention. Key is
// empty when no entry key was supplied.
type Join struct {
	Room string
	Key  string
}

// List requests the room listing.
type List struct{}

// Chat is any other non-empty line, broadcast to the current room.
type Chat struct {
	Text string
}

func (Help) isCommand() {}
func (Join) isCommand() {}
func (List) isCommand() {}
func (Chat) isCommand() {}

// Parse interprets one line. Keywords are case-sensitive and must be the
// first word. A /join without a room name is a usage error and parses to
// Help; it is not a protocol violation.
func Parse(line string) Command {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Help{}
	}
	fields := strings.Fields(trimmed)
	switch fields[0] {
	case "/help":
		return Help{}
	case "/list":
		return List{}
	case "/join":
		if len(fields) < 2 {
			return Help{}
		}
		j := Join{Room: fields[1]}
		if len(fields) > 2 {
			j.Key = fields[2]
		}
		return j
	default:
		return Chat{Text: trimmed}
	}
}
