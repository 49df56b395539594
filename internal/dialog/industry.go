// Package dialog holds the lead-capture conversation model: the closed set
// of industries, their form flows, the keyword intent detector and the flow
// engine that walks a session through its questions.
package dialog

import "strings"

// Industry selects which form flow a session follows.
type Industry string

const (
	Hotel      Industry = "hotel"
	RealEstate Industry = "real_estate"
	Healthcare Industry = "healthcare"
)

// Field names a slot collected by a form flow.
type Field string

const (
	FieldRoomType Field = "roomType"
	FieldCheckIn  Field = "checkIn"
	FieldCheckOut Field = "checkOut"
	FieldPurpose  Field = "purpose"
	FieldCity     Field = "city"
	FieldBudget   Field = "budget"
	FieldProblem  Field = "problem"
	FieldDoctor   Field = "doctor"
	FieldDate     Field = "date"
	FieldName     Field = "name"
	FieldPhone    Field = "phone"
)

var (
	hotelFlow      = [...]Field{FieldRoomType, FieldCheckIn, FieldCheckOut, FieldName, FieldPhone}
	realEstateFlow = [...]Field{FieldPurpose, FieldCity, FieldBudget, FieldName, FieldPhone}
	healthcareFlow = [...]Field{FieldProblem, FieldDoctor, FieldDate, FieldName, FieldPhone}
)

// Industries lists every supported industry in display order.
func Industries() []Industry {
	return []Industry{Hotel, RealEstate, Healthcare}
}

// ParseIndustry maps a raw request value onto the closed enum.
func ParseIndustry(raw string) (Industry, bool) {
	switch Industry(strings.ToLower(strings.TrimSpace(raw))) {
	case Hotel:
		return Hotel, true
	case RealEstate:
		return RealEstate, true
	case Healthcare:
		return Healthcare, true
	}
	return "", false
}

// Valid reports whether i is one of the supported industries.
func (i Industry) Valid() bool {
	switch i {
	case Hotel, RealEstate, Healthcare:
		return true
	}
	return false
}

// Flow returns a copy of the ordered fields for the industry, or nil when
// the industry is unknown.
func (i Industry) Flow() []Field {
	switch i {
	case Hotel:
		return append([]Field(nil), hotelFlow[:]...)
	case RealEstate:
		return append([]Field(nil), realEstateFlow[:]...)
	case Healthcare:
		return append([]Field(nil), healthcareFlow[:]...)
	}
	return nil
}

// Question is the prompt asked to collect the field.
func (f Field) Question() string {
	switch f {
	case FieldRoomType:
		return "Which room type do you want?"
	case FieldCheckIn:
		return "What is your check-in date?"
	case FieldCheckOut:
		return "What is your check-out date?"
	case FieldPurpose:
		return "Do you want to buy or rent?"
	case FieldCity:
		return "Which city are you looking in?"
	case FieldBudget:
		return "What is your budget?"
	case FieldProblem:
		return "What problem are you facing?"
	case FieldDoctor:
		return "Which doctor do you want to consult?"
	case FieldDate:
		return "Preferred appointment date?"
	case FieldName:
		return "What is your name?"
	case FieldPhone:
		return "What is your phone number?"
	}
	return ""
}

// QuickReply is a canned suggestion the chat widget shows for an industry.
type QuickReply struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Industry Industry `json:"industry"`
}

var quickReplies = []QuickReply{
	{ID: "hotel-1", Text: "Book a room", Industry: Hotel},
	{ID: "hotel-2", Text: "Check availability", Industry: Hotel},
	{ID: "real-estate-1", Text: "Buy property", Industry: RealEstate},
	{ID: "real-estate-2", Text: "Rent property", Industry: RealEstate},
	{ID: "healthcare-1", Text: "Book appointment", Industry: Healthcare},
	{ID: "healthcare-2", Text: "Medical consultation", Industry: Healthcare},
	{ID: "general-1", Text: "What services do you offer?", Industry: Hotel},
	{ID: "general-2", Text: "How much do you charge?", Industry: Hotel},
	{ID: "general-3", Text: "Contact support", Industry: Hotel},
	{ID: "general-4", Text: "Schedule a demo", Industry: Hotel},
}

// QuickReplies returns the suggestions for an industry. Hotel replies double
// as the general set, so they are always included.
func QuickReplies(industry Industry) []QuickReply {
	out := make([]QuickReply, 0, len(quickReplies))
	for _, r := range quickReplies {
		if industry == "" || r.Industry == industry || r.Industry == Hotel {
			out = append(out, r)
		}
	}
	return out
}
