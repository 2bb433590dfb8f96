package server

import (
	"fmt"
	"strings"

	"parley/internal/command"
	"parley/internal/metrics"
	"parley/internal/session"
)

const helpText = `
Parley Chat Server
/help - Lists instructions.
/join <name> <key> - Joins a room named <name>. If <name> does not exist, then it will be created. <key> is optional, but if specified, the room will be protected.
/list - Lists all rooms.
`

// dispatch interprets one decrypted line against the registry. State is
// implicit in membership: a session is either unjoined or in exactly one
// room.
func (s *Server) dispatch(sess *session.Session, line string) {
	switch cmd := command.Parse(line).(type) {
	case command.Help:
		s.reply(sess, helpText)
	case command.List:
		s.reply(sess, s.listing())
	case command.Join:
		s.join(sess, cmd)
	case command.Chat:
		s.chat(sess, cmd.Text)
	}
}

// reply sends one message back to the session, dropping it on write failure.
func (s *Server) reply(sess *session.Session, msg string) {
	if err := sess.Send(msg); err != nil {
		s.log.Warn().Err(err).Str("peer", sess.Addr()).Msg("reply failed")
		s.disconnect(sess)
	}
}

func (s *Server) listing() string {
	var b strings.Builder
	b.WriteString("Room\t\tClients")
	for _, info := range s.rooms.List() {
		marker := ""
		if info.Protected {
			marker = "*"
		}
		fmt.Fprintf(&b, "\n%s%s\t\t%d", marker, info.Name, info.Members)
	}
	return b.String()
}

func (s *Server) join(sess *session.Session, cmd command.Join) {
	h := sess.Handle()
	current, inRoom := s.rooms.FindContaining(h)

	target, exists := s.rooms.Get(cmd.Room)
	if exists {
		if target.Contains(h) {
			s.reply(sess, fmt.Sprintf("You are already in room '%s'", cmd.Room))
			return
		}
	} else {
		created, err := s.rooms.Create(cmd.Room, cmd.Key)
		if err != nil {
			s.log.Error().Err(err).Str("room", cmd.Room).Msg("room creation failed")
			s.reply(sess, fmt.Sprintf("Could not create room '%s'", cmd.Room))
			return
		}
		target = created
		metrics.RoomsCreated.Inc()
		s.log.Info().Str("room", cmd.Room).Bool("protected", target.Protected()).Msg("room created")
	}

	// Access is denied with an explanation and no membership change.
	if target.Protected() {
		if cmd.Key == "" {
			s.reply(sess, "This room requires a key to enter")
			return
		}
		if !target.CheckSecret(cmd.Key) {
			s.reply(sess, "The key supplied was incorrect")
			return
		}
	}

	if inRoom {
		s.dropFailed(current.Leave(sess))
	}
	s.dropFailed(target.Join(sess))
}

func (s *Server) chat(sess *session.Session, text string) {
	r, ok := s.rooms.FindContaining(sess.Handle())
	if !ok {
		// Chatting without a room is a usage error, answered with the help
		// text, not a protocol error.
		s.reply(sess, helpText)
		return
	}
	metrics.MessagesRelayed.Inc()
	s.dropFailed(r.Broadcast(sess, text, s.cfg.AckToken))
}
