// Package policy holds the column policy table and the engine that applies
// it to materialized tables.
package policy

// Action identifies what a policy rule does to matching columns
type Action string

const (
	// ActionDeleteKeys removes columns by exact name
	ActionDeleteKeys Action = "delete_keys"
	// ActionDeleteKeysByPattern removes columns whose name contains a token,
	// compared case-insensitively
	ActionDeleteKeysByPattern Action = "delete_keys_by_pattern"
	// ActionAnonymize replaces the values of columns named exactly by a digest
	ActionAnonymize Action = "anonymize"
)

// Known reports whether the action is one the engine implements
func (a Action) Known() bool {
	switch a {
	case ActionDeleteKeys, ActionDeleteKeysByPattern, ActionAnonymize:
		return true
	default:
		return false
	}
}

// Rule is one entry of the policy table
type Rule struct {
	Action  Action   `yaml:"action" toml:"action" json:"action"`
	Columns []string `yaml:"columns" toml:"columns" json:"columns"`
}

// Policy is the ordered policy table. Rules are applied in order and each
// rule sees the columns left by the previous ones.
type Policy []Rule

// DefaultPolicy returns the built-in policy for the Bahmni mart schema
func DefaultPolicy() Policy {
	return Policy{
		{
			Action: ActionDeleteKeys,
			Columns: []string{
				"given_name",
				"middle_name",
				"family_name",
				"first_name",
				"last_name",
				"date_of_birth",
				"birthdate",
				"birthtime",
				"creator",
				"changed_by",
				"voided_by",
				"uuid",
			},
		},
		{
			Action: ActionDeleteKeysByPattern,
			Columns: []string{
				"phone",
				"email",
				"address",
				"contact",
				"secret",
				"password",
				"national_id",
			},
		},
		{
			Action: ActionAnonymize,
			Columns: []string{
				"patient_id",
				"person_id",
				"identifier",
				"patient_identifier",
				"encounter_id",
				"visit_id",
			},
		},
	}
}
