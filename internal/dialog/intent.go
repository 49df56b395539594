package dialog

import "strings"

var (
	triggerWords = []string{"book", "appointment", "buy", "rent", "reserve", "schedule"}

	realEstateWords = []string{"real estate", "property", "apartment", "house", "flat", "home"}
	transactWords   = []string{"buy", "rent"}
	healthcareWords = []string{"appointment", "doctor", "medical", "health", "consultation", "hospital", "clinic"}
	hotelWords      = []string{"book", "room", "hotel", "reservation", "stay", "night"}
)

// TriggerWords returns the words that switch a chat into form mode.
func TriggerWords() []string {
	return append([]string(nil), triggerWords...)
}

// ShouldStartForm reports whether a chat message asks to book, buy or
// schedule something, which switches the session into form mode.
func ShouldStartForm(message string) bool {
	return containsAny(strings.ToLower(message), triggerWords)
}

// DetectIndustry infers the flow from message keywords. Rules are checked
// in a fixed order (real estate, healthcare, hotel) and the first match
// wins, so "doctor near my apartment" resolves to real estate. When nothing
// matches the current industry is kept.
func DetectIndustry(message string, current Industry) Industry {
	m := strings.ToLower(message)
	switch {
	case containsAny(m, realEstateWords) || (containsAny(m, transactWords) && containsAny(m, realEstateWords)):
		return RealEstate
	case containsAny(m, healthcareWords):
		return Healthcare
	case containsAny(m, hotelWords):
		return Hotel
	}
	return current
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
