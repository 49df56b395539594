package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEveryFlowFieldHasQuestion(t *testing.T) {
	for _, ind := range Industries() {
		flow := ind.Flow()
		require.Len(t, flow, 5, ind)
		for _, f := range flow {
			assert.NotEmpty(t, f.Question(), "%s/%s", ind, f)
		}
	}
}

func TestParseIndustry(t *testing.T) {
	got, ok := ParseIndustry(" Real_Estate ")
	assert.True(t, ok)
	assert.Equal(t, RealEstate, got)

	_, ok = ParseIndustry("automotive")
	assert.False(t, ok)
	assert.False(t, Industry("automotive").Valid())
	assert.Nil(t, Industry("automotive").Flow())
}

func TestFlowReturnsCopy(t *testing.T) {
	flow := Hotel.Flow()
	flow[0] = FieldCity
	assert.Equal(t, FieldRoomType, Hotel.Flow()[0])
}

func TestShouldStartForm(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"I want to BOOK a room", true},
		{"can I schedule a visit", true},
		{"Looking to rent", true},
		{"what are your opening hours?", false},
		{"hello", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShouldStartForm(tt.msg), tt.msg)
	}
}

func TestDetectIndustry(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		current Industry
		want    Industry
	}{
		{"real estate noun", "I want to buy a house", Hotel, RealEstate},
		{"doctor and apartment resolves to real estate", "book a doctor near my apartment", Hotel, RealEstate},
		{"healthcare", "I need an appointment with a doctor", Hotel, Healthcare},
		{"hotel", "book a room for two nights", Healthcare, Hotel},
		{"no keywords keeps current", "schedule something", Healthcare, Healthcare},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectIndustry(tt.msg, tt.current))
		})
	}
}

func TestStartAndAdvanceHotelFlow(t *testing.T) {
	s := NewSession("s1", Hotel)
	q, err := Start(s, "I want to book a room")
	require.NoError(t, err)
	assert.Equal(t, "Which room type do you want?", q)
	assert.Equal(t, ModeForm, s.Mode)
	assert.Equal(t, 0, s.Step)

	answers := []string{"suite", "May 1", "May 4", "Ada", "+100200300"}
	flow := Hotel.Flow()
	for i, a := range answers {
		step, err := Advance(s, a)
		require.NoError(t, err)
		assert.Equal(t, i+1, s.Step)
		assert.LessOrEqual(t, s.Step, len(flow))
		assert.Len(t, s.Data, s.Step)
		if i < len(answers)-1 {
			assert.False(t, step.Completed)
			assert.Equal(t, flow[i+1].Question(), step.Question)
		} else {
			assert.True(t, step.Completed)
			assert.Equal(t, ThankYou, step.Question)
		}
	}
	assert.Equal(t, "suite", s.Data[FieldRoomType])
	assert.Equal(t, "+100200300", s.Data[FieldPhone])

	_, err = Advance(s, "extra")
	assert.ErrorIs(t, err, ErrFlowComplete)
}

func TestAdvanceIgnoresIndustryChangeMidForm(t *testing.T) {
	s := NewSession("s2", Hotel)
	_, err := Start(s, "reserve a room")
	require.NoError(t, err)

	step, err := Advance(s, "actually I want to buy an apartment")
	require.NoError(t, err)
	assert.Equal(t, Hotel, s.Industry)
	assert.Equal(t, FieldCheckIn.Question(), step.Question)
}

func TestAdvanceRequiresFormMode(t *testing.T) {
	_, err := Advance(NewSession("s3", Hotel), "hi")
	assert.ErrorIs(t, err, ErrNotInForm)
}

func TestStartUnknownIndustry(t *testing.T) {
	s := NewSession("s4", Industry("boats"))
	_, err := Start(s, "schedule")
	assert.ErrorIs(t, err, ErrUnknownIndustry)
	assert.Equal(t, ModeChat, s.Mode)
}

func TestQuickRepliesIncludeGeneralSet(t *testing.T) {
	replies := QuickReplies(Healthcare)
	var hasHealth, hasGeneral bool
	for _, r := range replies {
		if r.Industry == Healthcare {
			hasHealth = true
		}
		if r.ID == "general-1" {
			hasGeneral = true
		}
		assert.NotEqual(t, RealEstate, r.Industry)
	}
	assert.True(t, hasHealth)
	assert.True(t, hasGeneral)
}

func TestSessionClone(t *testing.T) {
	s := NewSession("s5", Hotel)
	s.Record(RoleUser, "hi")
	s.Data[FieldName] = "Ada"
	c := s.Clone()
	c.Data[FieldName] = "Bob"
	c.Record(RoleBot, "hello")
	assert.Equal(t, "Ada", s.Data[FieldName])
	assert.Len(t, s.History, 1)
}
