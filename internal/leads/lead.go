// Package leads turns finished conversations and contact forms into lead
// records and hands them to a storage sink.
package leads

import (
	"time"

	"github.com/google/uuid"

	"leadbot-backend/internal/dialog"
)

const (
	StatusNew = "new"

	SourceChatForm    = "chat_form"
	SourceContactForm = "lead_capture_form"
)

// Lead is built once, at form completion or contact-form submission, and is
// not retained after being recorded.
type Lead struct {
	ID         string            `json:"id"`
	Industry   string            `json:"industry,omitempty"`
	Fields     map[string]string `json:"fields"`
	Transcript []dialog.Turn     `json:"transcript,omitempty"`
	Status     string            `json:"status"`
	Source     string            `json:"source"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// FromSession captures every collected answer and the full transcript.
func FromSession(s *dialog.Session, now time.Time) Lead {
	fields := make(map[string]string, len(s.Data))
	for k, v := range s.Data {
		fields[string(k)] = v
	}
	return Lead{
		ID:         uuid.NewString(),
		Industry:   string(s.Industry),
		Fields:     fields,
		Transcript: append([]dialog.Turn(nil), s.History...),
		Status:     StatusNew,
		Source:     SourceChatForm,
		CreatedAt:  now.UTC(),
	}
}

// Contact is the payload of the standalone lead-capture form.
type Contact struct {
	Name  string
	Email string
	Phone string
	Query string
}

func FromContact(c Contact, now time.Time) Lead {
	return Lead{
		ID: uuid.NewString(),
		Fields: map[string]string{
			"name":  c.Name,
			"email": c.Email,
			"phone": c.Phone,
			"query": c.Query,
		},
		Status:    StatusNew,
		Source:    SourceContactForm,
		CreatedAt: now.UTC(),
	}
}

// Document flattens the lead into the shape written to document stores:
// collected fields sit at the top level beside the bookkeeping keys.
func (l Lead) Document() map[string]any {
	doc := make(map[string]any, len(l.Fields)+6)
	for k, v := range l.Fields {
		doc[k] = v
	}
	if l.Industry != "" {
		doc["industry"] = l.Industry
	}
	if len(l.Transcript) > 0 {
		transcript := make([]map[string]any, 0, len(l.Transcript))
		for _, t := range l.Transcript {
			transcript = append(transcript, map[string]any{"role": string(t.Role), "text": t.Text})
		}
		doc["transcript"] = transcript
	}
	doc["leadId"] = l.ID
	doc["status"] = l.Status
	doc["source"] = l.Source
	doc["createdAt"] = l.CreatedAt
	return doc
}
