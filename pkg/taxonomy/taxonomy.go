// Package taxonomy maps export categories to the mart tables they cover.
package taxonomy

import "sort"

// ObservationsCategory is resolved from table shape rather than from the
// static lists: any table with an obs_datetime column belongs to it.
const ObservationsCategory = "clinical_observations_and_vital_signs"

// Taxonomy maps a category name to the table names it covers. Table names
// are case-sensitive and must match the database identifiers.
type Taxonomy map[string][]string

// Tables returns the static tables for a category and whether the category
// is known.
func (t Taxonomy) Tables(category string) ([]string, bool) {
	tables, ok := t[category]
	return tables, ok
}

// Categories returns the category names in sorted order
func (t Taxonomy) Categories() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the built-in taxonomy for the Bahmni mart schema
func Default() Taxonomy {
	return Taxonomy{
		"patient_demographics": {
			"person_details_default",
			"person_address_default",
			"person_attributes",
			"patient_identifier",
		},
		"visits_and_encounters": {
			"patient_visit_details_default",
			"patient_encounter_details_default",
			"visit_attribute_details_default",
		},
		ObservationsCategory: {},
		"diagnoses_and_conditions": {
			"diagnosis_default",
			"conditions_default",
			"patient_allergy_status_default",
		},
		"medications_and_orders": {
			"medication_data_default",
			"orders_default",
			"drug_order_default",
		},
		"programs_and_treatment": {
			"patient_program_data_default",
			"programs_default",
			"program_outcomes_default",
		},
		"appointments": {
			"patient_appointment_default",
			"appointment_service_default",
			"appointment_speciality_default",
			"service_availability_default",
		},
		"bed_management": {
			"bed_patient_assignment_default",
			"bed_tags_default",
			"current_bed_details_default",
		},
		"laboratory_and_radiology": {
			"lab_orders_default",
			"radiology_orders_default",
		},
	}
}
