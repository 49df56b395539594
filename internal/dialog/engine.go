package dialog

import (
	"errors"
	"fmt"
)

// ThankYou is the reply sent once the last field of a flow is filled.
const ThankYou = "Thank you! Our team will contact you shortly."

var (
	ErrUnknownIndustry = errors.New("unknown industry")
	ErrNotInForm       = errors.New("session is not in form mode")
	ErrFlowComplete    = errors.New("flow already complete")
)

// Step is the outcome of recording one form answer.
type Step struct {
	Question  string
	Completed bool
}

// Start switches a chat session into form mode. The industry is detected
// from the triggering message and stays fixed until the form completes.
func Start(s *Session, message string) (string, error) {
	industry := DetectIndustry(message, s.Industry)
	flow := industry.Flow()
	if len(flow) == 0 {
		return "", fmt.Errorf("start form for %q: %w", industry, ErrUnknownIndustry)
	}
	s.Industry = industry
	s.Mode = ModeForm
	s.Step = 0
	return flow[0].Question(), nil
}

// Advance stores answer under the current field and moves the cursor. Any
// text is accepted for any field.
func Advance(s *Session, answer string) (Step, error) {
	if s.Mode != ModeForm {
		return Step{}, ErrNotInForm
	}
	flow := s.Industry.Flow()
	if len(flow) == 0 {
		return Step{}, fmt.Errorf("advance %q: %w", s.Industry, ErrUnknownIndustry)
	}
	if s.Step < 0 || s.Step >= len(flow) {
		return Step{}, fmt.Errorf("advance at step %d of %d: %w", s.Step, len(flow), ErrFlowComplete)
	}
	if s.Data == nil {
		s.Data = make(map[Field]string, len(flow))
	}
	s.Data[flow[s.Step]] = answer
	s.Step++
	if s.Step < len(flow) {
		return Step{Question: flow[s.Step].Question()}, nil
	}
	return Step{Question: ThankYou, Completed: true}, nil
}
