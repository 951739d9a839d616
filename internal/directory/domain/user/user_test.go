package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperlus/ledger/internal/directory/domain/user"
)

func mustUser(t *testing.T, id, name, email, phone string) *user.User {
	t.Helper()
	u, err := user.New(id, name, email, phone)
	require.NoError(t, err)
	return u
}

func TestNew(t *testing.T) {
	u, err := user.New(" U-1138 ", " Anya Sharma ", "anya.s@email.com", "0812-3456-7890")

	require.NoError(t, err)
	assert.Equal(t, "U-1138", u.ID())
	assert.Equal(t, "Anya Sharma", u.CompanyName())
	assert.Equal(t, "anya.s@email.com", u.Email())
	assert.Equal(t, "0812-3456-7890", u.Phone())
}

func TestNew_Validation(t *testing.T) {
	_, err := user.New("", "Anya", "", "")
	assert.ErrorIs(t, err, user.ErrInvalidUser)

	_, err = user.New("U-1", "  ", "", "")
	assert.ErrorIs(t, err, user.ErrInvalidUser)
}

func TestUser_Matches(t *testing.T) {
	u := mustUser(t, "U-4821", "Clark Kent", "clark.k@dailyplanet.com", "0877-9999-8888")

	tests := []struct {
		term string
		want bool
	}{
		{"clark", true},
		{"KENT", true},
		{"DailyPlanet", true},
		{"u-4821", true},
		{"9999", true},
		{"0877-9999", true},
		{"lois", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, u.Matches(tt.term))
		})
	}
}

func TestUser_MatchesQuery(t *testing.T) {
	u := mustUser(t, "U-1138", "Anya Sharma", "anya.s@email.com", "0812-3456-7890")

	assert.True(t, u.MatchesQuery("nobody; anya"))
	assert.True(t, u.MatchesQuery(" ; "))
	assert.False(t, u.MatchesQuery("fajar;budi"))
}

func TestSearchTerms(t *testing.T) {
	assert.Equal(t, []string{"anya", "U-8752"}, user.SearchTerms(" anya ;; U-8752;"))
	assert.Empty(t, user.SearchTerms(""))
}

func TestFilter(t *testing.T) {
	users := []*user.User{
		mustUser(t, "U-1138", "Anya Sharma", "anya.s@email.com", "0812-3456-7890"),
		mustUser(t, "U-8752", "Fajar Nugraha", "fajar.n@email.com", "0877-5555-4321"),
		mustUser(t, "U-4821", "Clark Kent", "clark.k@dailyplanet.com", "0877-9999-8888"),
	}

	got := user.Filter(users, "0877")
	require.Len(t, got, 2)
	assert.Equal(t, "U-8752", got[0].ID())
	assert.Equal(t, "U-4821", got[1].ID())

	assert.Len(t, user.Filter(users, ""), 3)
	assert.Empty(t, user.Filter(users, "zzz"))
}

func TestUser_MatchesIn(t *testing.T) {
	u := mustUser(t, "U-4821", "Clark Kent", "clark.k@dailyplanet.com", "0877-9999-8888")

	tests := []struct {
		field user.SearchField
		term  string
		want  bool
	}{
		{user.FieldEmail, "dailyplanet", true},
		{user.FieldEmail, "kent", false},
		{user.FieldName, "KENT", true},
		{user.FieldName, "planet", false},
		{user.FieldID, "u-48", true},
		{user.FieldID, "9999", false},
		{user.FieldPhone, "9999", true},
		{user.FieldPhone, "clark", false},
		{user.FieldAny, "9999", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.field)+"/"+tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, u.MatchesIn(tt.field, tt.term))
		})
	}
}

func TestParseSearchField(t *testing.T) {
	for in, want := range map[string]user.SearchField{
		"":       user.FieldAny,
		"any":    user.FieldAny,
		"Email":  user.FieldEmail,
		" name ": user.FieldName,
		"id":     user.FieldID,
		"phone":  user.FieldPhone,
	} {
		got, err := user.ParseSearchField(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := user.ParseSearchField("address")
	assert.ErrorIs(t, err, user.ErrInvalidSearchField)
}

func TestSearch(t *testing.T) {
	users := []*user.User{
		mustUser(t, "U-1138", "Anya Sharma", "anya.s@email.com", "0812-3456-7890"),
		mustUser(t, "U-8752", "Fajar Nugraha", "fajar.n@email.com", "0877-5555-4321"),
		mustUser(t, "U-4821", "Clark Kent", "clark.k@dailyplanet.com", "0877-9999-8888"),
	}

	got := user.Search(users, user.FieldEmail, "anya; dailyplanet")
	require.Len(t, got, 2)
	assert.Equal(t, "U-1138", got[0].ID())
	assert.Equal(t, "U-4821", got[1].ID())

	assert.Empty(t, user.Search(users, user.FieldName, "0877"))
	assert.Len(t, user.Search(users, user.FieldAny, "0877"), 2)
	assert.Empty(t, user.Search(users, user.FieldAny, ""))
	assert.Empty(t, user.Search(users, user.FieldAny, " ; "))
}
