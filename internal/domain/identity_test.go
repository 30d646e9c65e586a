package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"+33 1 23 45 67 89", "+33123456789", true},
		{"0123456789", "0123456789", true},
		{"01-23-45-67-89", "0123456789", true},
		{"12345", "", false},
		{"+33 abc 45 67 89", "", false},
		{"", "", false},
		{"+ 33123456789", "", false},
	}
	for _, tc := range cases {
		got, err := NormalizePhone(tc.in)
		if !tc.ok {
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
	assert.Error(t, RequireInternational("0123456789"))
	assert.NoError(t, RequireInternational("+33123456789"))
}

func TestBeneficiaryCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := NewBeneficiaryCode()
		require.NoError(t, err)
		assert.True(t, IsBeneficiaryCode(code), code)
	}
	assert.False(t, IsBeneficiaryCode("E12a4"))
	assert.False(t, IsBeneficiaryCode("V1234"))
}

func TestVolunteerCode(t *testing.T) {
	pattern := regexp.MustCompile(`^V[AN][0-9A-F]{4}$`)
	assert.Regexp(t, pattern, NewVolunteerCode(true))
	assert.Equal(t, "VA", NewVolunteerCode(true)[:2])
	assert.Equal(t, "VN", NewVolunteerCode(false)[:2])
}

func TestVolunteerFirstLogin(t *testing.T) {
	v, err := NewVolunteer(id.NewVolunteerID(), "+33612345678", []byte("hash"), false, t0)
	require.NoError(t, err)
	assert.True(t, v.FirstLoginPending)

	err = v.CompleteFirstLogin("Nadia", "B", nil, []byte("new"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "field volunteers need a location")

	loc := id.NewLocationID()
	require.NoError(t, v.CompleteFirstLogin("Nadia", "B", &loc, []byte("new")))
	assert.False(t, v.FirstLoginPending)
	assert.True(t, v.Operator().At(&loc))

	err = v.CompleteFirstLogin("Nadia", "B", &loc, []byte("new"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestOperatorAt(t *testing.T) {
	a, b := id.NewLocationID(), id.NewLocationID()
	assert.True(t, Operator{HomeLocation: &a}.At(&a))
	assert.False(t, Operator{HomeLocation: &a}.At(&b))
	assert.False(t, Operator{}.At(&a))
	assert.False(t, Operator{HomeLocation: &a}.At(nil))
}

func TestDay(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	// 23:30 UTC on March 1st is already March 2nd in Paris
	late := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, Day("2026-03-02"), DayOf(late, paris))
	assert.Equal(t, Day("2026-03-01"), DayOf(late, time.UTC))

	d, err := ParseDay("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d.End(time.UTC).Sub(d.Start(time.UTC)))

	_, err = ParseDay("02/03/2026")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidDate))
}

func TestLocationRename(t *testing.T) {
	l, err := NewLocation(id.NewLocationID(), "  Ivry  ", t0)
	require.NoError(t, err)
	assert.Equal(t, "Ivry", l.Name)
	assert.True(t, l.MatchesName("iv"))
	assert.False(t, l.MatchesName("paris"))
	assert.True(t, dErrors.HasCode(l.Rename(" "), dErrors.CodeValidation))
}
