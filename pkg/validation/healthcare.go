package validation

import (
	"math"
	"time"

	"github.com/goliatone/go-formkit/pkg/model"
)

const (
	MsgInvalidState     = "Selected state/province is not valid for the chosen country"
	MsgInvalidCity      = "Selected city is not valid for the chosen country"
	MsgInvalidBirthDate = "Please enter a valid birth date"
	MsgEmergencyPhone   = "Emergency contact phone is required when contact name is provided"
)

const daysPerYear = 365.25

// ValidateLocation checks that the selected state and city belong to the
// option lists loaded for the selected country. Nothing is reported while
// states or cities are loading, or while an option list is empty.
func ValidateLocation(country, state, city model.Value, stateOptions, cityOptions []model.Option, loading model.LoadingFlags) FieldErrors {
	errs := FieldErrors{}
	if loading.States || loading.Cities || country.IsEmpty() {
		return errs
	}
	if !state.IsEmpty() && len(stateOptions) > 0 && !containsOption(stateOptions, state.Text()) {
		errs["state"] = []string{MsgInvalidState}
	}
	if !city.IsEmpty() && len(cityOptions) > 0 && !containsOption(cityOptions, city.Text()) {
		errs["city"] = []string{MsgInvalidCity}
	}
	return errs
}

func containsOption(options []model.Option, value string) bool {
	for _, opt := range options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// ValidatePatientData applies cross-field patient checks: the age implied by
// date_of_birth must lie within 0..150 years and an emergency contact name
// requires a phone number.
func (e *Engine) ValidatePatientData(record model.Record) FieldErrors {
	errs := FieldErrors{}
	if dob := record.Get("date_of_birth"); !dob.IsEmpty() {
		if birth, err := time.Parse("2006-01-02", dob.Text()); err == nil {
			years := math.Floor(e.now().Sub(birth).Hours() / 24 / daysPerYear)
			if years < 0 || years > 150 {
				errs["date_of_birth"] = []string{MsgInvalidBirthDate}
			}
		}
	}
	if !record.Get("emergency_contact_name").IsEmpty() && record.Get("emergency_contact_phone").IsEmpty() {
		errs["emergency_contact_phone"] = []string{MsgEmergencyPhone}
	}
	return errs
}
