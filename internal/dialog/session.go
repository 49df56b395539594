package dialog

import "time"

// Mode is the conversation state of a session.
type Mode string

const (
	ModeChat Mode = "chat"
	ModeForm Mode = "form"
)

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is one line of the conversation transcript.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Session is the per-conversation state. Step is the cursor into the
// industry flow and Data only ever holds answers for flow[0:Step].
type Session struct {
	ID        string           `json:"sessionId"`
	Industry  Industry         `json:"industry"`
	Mode      Mode             `json:"mode"`
	Step      int              `json:"step"`
	Data      map[Field]string `json:"data"`
	History   []Turn           `json:"history"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NewSession starts a conversation in chat mode.
func NewSession(id string, industry Industry) *Session {
	return &Session{
		ID:        id,
		Industry:  industry,
		Mode:      ModeChat,
		Data:      make(map[Field]string),
		History:   []Turn{},
		CreatedAt: time.Now().UTC(),
	}
}

// Record appends a turn to the transcript.
func (s *Session) Record(role Role, text string) {
	s.History = append(s.History, Turn{Role: role, Text: text})
}

// Clone returns a deep copy so callers can hand out snapshots.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Data = make(map[Field]string, len(s.Data))
	for k, v := range s.Data {
		out.Data[k] = v
	}
	out.History = append([]Turn(nil), s.History...)
	return &out
}
