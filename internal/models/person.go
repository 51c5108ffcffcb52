package models

import (
	"strings"
	"time"
)

// PersonsTable describes the writable columns of persons.
var PersonsTable = Table{
	Name:    "persons",
	Columns: []string{"surname", "firstname", "patronymic", "birthday", "created", "destination", "user_id"},
}

// PersonSummaryColumns are projected by the candidate listing.
var PersonSummaryColumns = []string{"id", "surname", "firstname", "patronymic", "birthday", "created"}

// MaxSearchTokens bounds how many words of a search query are honoured.
const MaxSearchTokens = 3

// Person is a candidate record.
type Person struct {
	ID          int64     `db:"id" json:"id"`
	Surname     string    `db:"surname" json:"surname"`
	Firstname   string    `db:"firstname" json:"firstname"`
	Patronymic  string    `db:"patronymic" json:"patronymic"`
	Birthday    Date      `db:"birthday" json:"birthday"`
	Created     time.Time `db:"created" json:"created"`
	Destination *string   `db:"destination" json:"destination"`
	UserID      *int64    `db:"user_id" json:"user_id"`
}

// PersonSummary is a row of the candidate listing.
type PersonSummary struct {
	ID         int64     `db:"id" json:"id"`
	Surname    string    `db:"surname" json:"surname"`
	Firstname  string    `db:"firstname" json:"firstname"`
	Patronymic string    `db:"patronymic" json:"patronymic"`
	Birthday   Date      `db:"birthday" json:"birthday"`
	Created    time.Time `db:"created" json:"created"`
}

// PersonRecord carries the fields of an upsert. ID is set when the caller
// targets a known row. Supplied lists the identity columns the caller sent;
// nil means all of them.
type PersonRecord struct {
	ID         *int64
	Surname    string
	Firstname  string
	Patronymic string
	Birthday   Date
	UserID     *int64
	Supplied   []string
}

// Fields returns the identity columns written on insert.
// user_id is stamped on insert only.
func (r PersonRecord) Fields() map[string]interface{} {
	return map[string]interface{}{
		"surname":    r.Surname,
		"firstname":  r.Firstname,
		"patronymic": r.Patronymic,
		"birthday":   r.Birthday.String(),
	}
}

// UpdateFields returns the supplied identity columns only, so an update by id
// leaves omitted columns untouched.
func (r PersonRecord) UpdateFields() map[string]interface{} {
	all := r.Fields()
	if r.Supplied == nil {
		return all
	}
	fields := make(map[string]interface{}, len(r.Supplied))
	for _, col := range r.Supplied {
		if v, ok := all[col]; ok {
			fields[col] = v
		}
	}
	return fields
}

// DestinationFunc derives the storage folder of a freshly inserted person.
type DestinationFunc func(id int64, rec PersonRecord) (string, error)

// UpsertResult reports the outcome of a person upsert.
type UpsertResult struct {
	PersonID    int64  `json:"person_id"`
	Exists      bool   `json:"exists"`
	Destination string `json:"-"`
}

// CandidatePage is one page of the candidate listing.
type CandidatePage struct {
	HasNext    bool            `json:"has_next"`
	Candidates []PersonSummary `json:"candidates"`
}

// SearchTokens upper-cases query and returns at most MaxSearchTokens words
// in surname, firstname, patronymic order.
func SearchTokens(query string) []string {
	tokens := strings.Fields(strings.ToUpper(query))
	if len(tokens) > MaxSearchTokens {
		tokens = tokens[:MaxSearchTokens]
	}
	return tokens
}

// SearchColumns pairs with SearchTokens.
var SearchColumns = [MaxSearchTokens]string{"surname", "firstname", "patronymic"}

// NormalizeName trims and upper-cases a name part.
func NormalizeName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
