package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidUser        = errors.New("invalid user")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidSearchField = errors.New("invalid search field")
)

// SearchField limits which attribute a search term is matched against.
type SearchField string

const (
	FieldAny   SearchField = ""
	FieldEmail SearchField = "email"
	FieldName  SearchField = "name"
	FieldID    SearchField = "id"
	FieldPhone SearchField = "phone"
)

// ParseSearchField accepts email, name, id, phone, or "" and "any" for every
// field.
func ParseSearchField(s string) (SearchField, error) {
	switch f := SearchField(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldAny, FieldEmail, FieldName, FieldID, FieldPhone:
		return f, nil
	case "any":
		return FieldAny, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSearchField, s)
	}
}

// User is a directory entry that subscriptions are granted to.
type User struct {
	id          string
	companyName string
	email       string
	phone       string
}

// New creates a user. ID and company name are required.
func New(id, companyName, email, phone string) (*User, error) {
	id = strings.TrimSpace(id)
	companyName = strings.TrimSpace(companyName)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrInvalidUser)
	}
	if companyName == "" {
		return nil, fmt.Errorf("%w: %s has no company name", ErrInvalidUser, id)
	}
	return &User{
		id:          id,
		companyName: companyName,
		email:       strings.TrimSpace(email),
		phone:       strings.TrimSpace(phone),
	}, nil
}

// Getters
func (u *User) ID() string          { return u.id }
func (u *User) CompanyName() string { return u.companyName }
func (u *User) Email() string       { return u.email }
func (u *User) Phone() string       { return u.phone }

// Matches reports whether a single search term hits any field of the user.
func (u *User) Matches(term string) bool {
	return u.MatchesIn(FieldAny, term)
}

// MatchesIn reports whether term hits the given field. Company name, email
// and id match case-insensitively. Phone matches as a plain substring.
func (u *User) MatchesIn(field SearchField, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}
	lower := strings.ToLower(term)
	switch field {
	case FieldEmail:
		return strings.Contains(strings.ToLower(u.email), lower)
	case FieldName:
		return strings.Contains(strings.ToLower(u.companyName), lower)
	case FieldID:
		return strings.Contains(strings.ToLower(u.id), lower)
	case FieldPhone:
		return strings.Contains(u.phone, term)
	default:
		return u.MatchesIn(FieldName, term) || u.MatchesIn(FieldEmail, term) ||
			u.MatchesIn(FieldID, term) || u.MatchesIn(FieldPhone, term)
	}
}

// SearchTerms splits a query on ';' and drops blank terms.
func SearchTerms(query string) []string {
	var terms []string
	for _, t := range strings.Split(query, ";") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// MatchesQuery reports whether any term of query hits the user. A query with
// no terms matches everyone.
func (u *User) MatchesQuery(query string) bool {
	terms := SearchTerms(query)
	if len(terms) == 0 {
		return true
	}
	for _, t := range terms {
		if u.Matches(t) {
			return true
		}
	}
	return false
}

// Filter returns the users matching query, keeping order.
func Filter(users []*User, query string) []*User {
	out := make([]*User, 0, len(users))
	for _, u := range users {
		if u.MatchesQuery(query) {
			out = append(out, u)
		}
	}
	return out
}

// Search returns the users where any term of query hits field, keeping
// order. Unlike Filter, a query with no terms finds nobody.
func Search(users []*User, field SearchField, query string) []*User {
	terms := SearchTerms(query)
	if len(terms) == 0 {
		return nil
	}
	var out []*User
	for _, u := range users {
		for _, t := range terms {
			if u.MatchesIn(field, t) {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

// Repository persists users.
type Repository interface {
	Save(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	// List returns every user ordered by id.
	List(ctx context.Context) ([]*User, error)
}
