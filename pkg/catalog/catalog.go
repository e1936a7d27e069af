// Package catalog carries the reserved information-schema numeric tags
// spec.md §6 mentions: INFORMATION_SCHEMA/DEFAULT schema tags and the
// well-known table names underneath information_schema.
//
// These constants are non-normative placeholders, exactly as spec.md §6
// requires: every lookup elsewhere in kuiperdb routes by the string prefixes
// pkg/keys builds, never by the numeric tag. The original prototype this is
// grounded on (kuiperdb-core/src/schema/information_schema.rs) collides four
// of these tags at 0x0002; this package renumbers them distinctly instead,
// per the redesign decision recorded in SPEC_FULL.md §13.
package catalog

// SchemaTag identifies one of the two reserved schema numbers.
type SchemaTag uint16

const (
	InformationSchema SchemaTag = 0x0000
	DefaultSchema     SchemaTag = 0x0001
)

// TableTag identifies one of the well-known tables nested under the
// information_schema schema.
type TableTag uint16

const (
	TableSchema            TableTag = 0x0000
	TableTable             TableTag = 0x0001
	TablePrivileges        TableTag = 0x0002
	ReferentialConstraints TableTag = 0x0003
	CheckConstraints       TableTag = 0x0004
	TableConstraints       TableTag = 0x0005
)

// TableNames lists the well-known information_schema table names in tag
// order, the way pkg/exec.CreateCollection's catalogue row names the "table"
// table by string.
var TableNames = map[TableTag]string{
	TableSchema:            "schema",
	TableTable:              "table",
	TablePrivileges:        "table_privileges",
	ReferentialConstraints: "referential_constraints",
	CheckConstraints:       "check_constraints",
	TableConstraints:       "table_constraints",
}
