package models

import "sort"

// ItemKind names one of the person-linked sub-record categories.
type ItemKind string

const (
	ItemAddresses      ItemKind = "addresses"
	ItemAffiliations   ItemKind = "affiliations"
	ItemChecks         ItemKind = "checks"
	ItemContacts       ItemKind = "contacts"
	ItemDocuments      ItemKind = "documents"
	ItemEducations     ItemKind = "educations"
	ItemInquiries      ItemKind = "inquiries"
	ItemInvestigations ItemKind = "investigations"
	ItemPrevious       ItemKind = "previous"
	ItemPoligraphs     ItemKind = "poligraphs"
	ItemStaffs         ItemKind = "staffs"
	ItemWorkplaces     ItemKind = "workplaces"
)

// Columns every item table carries in addition to its own fields.
const (
	ColumnID       = "id"
	ColumnPersonID = "person_id"
	ColumnCreated  = "created"
)

// Table is a statically known table identifier together with the columns
// callers are allowed to write.
type Table struct {
	Name    string
	Columns []string
}

// Allows reports whether column may be written or filtered on.
func (t Table) Allows(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Readable lists every column a select may project, id first.
func (t Table) Readable() []string {
	cols := make([]string, 0, len(t.Columns)+1)
	cols = append(cols, ColumnID)
	return append(cols, t.Columns...)
}

func itemTable(name string, fields ...string) Table {
	cols := make([]string, 0, len(fields)+2)
	cols = append(cols, ColumnPersonID, ColumnCreated)
	return Table{Name: name, Columns: append(cols, fields...)}
}

var itemTables = map[ItemKind]Table{
	ItemAddresses:    itemTable("addresses", "view", "region", "address"),
	ItemAffiliations: itemTable("affiliations", "view", "name", "inn", "position", "deadline"),
	ItemChecks: itemTable("checks",
		"workplace", "employee", "document", "inquiry", "bankruptcy", "bki", "courts", "affiliation",
		"terrorist", "mvd", "internet", "cronos", "cros", "addition", "pfo", "conclusion", "comment", "officer"),
	ItemContacts:       itemTable("contacts", "view", "contact"),
	ItemDocuments:      itemTable("documents", "view", "digits", "agency", "issue"),
	ItemEducations:     itemTable("educations", "view", "institution", "finished", "specialty"),
	ItemInquiries:      itemTable("inquiries", "info", "initiator", "source"),
	ItemInvestigations: itemTable("investigations", "theme", "info"),
	ItemPrevious:       itemTable("previous", "surname", "firstname", "patronymic", "date_change", "reason"),
	ItemPoligraphs:     itemTable("poligraphs", "theme", "results", "officer"),
	ItemStaffs:         itemTable("staffs", "position", "department"),
	ItemWorkplaces:     itemTable("workplaces", "start_date", "end_date", "workplace", "address", "position", "reason"),
}

// ParseItemKind validates raw against the registry.
func ParseItemKind(raw string) (ItemKind, bool) {
	kind := ItemKind(raw)
	_, ok := itemTables[kind]
	return kind, ok
}

// Table maps the kind to its table descriptor. ok is false for values
// that did not come from the registry.
func (k ItemKind) Table() (Table, bool) {
	t, ok := itemTables[k]
	return t, ok
}

// ItemKinds returns every registered kind in a stable order.
func ItemKinds() []ItemKind {
	kinds := make([]ItemKind, 0, len(itemTables))
	for k := range itemTables {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ItemRecord is a single row of an item table keyed by column name.
type ItemRecord map[string]interface{}
