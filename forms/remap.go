// Package forms translates client-side form field names into the names the
// validators and stores use.
package forms

// RegistrationFields maps the registration form's camelCase names to
// internal names. Fields already sent in internal form (email, gender,
// password) are not listed.
var RegistrationFields = map[string]string{
	"firstName":            "first_name",
	"middleName":           "middle_name",
	"lastName":             "last_name",
	"dateOfBirth":          "date_of_birth",
	"phoneNumber":          "phone_number",
	"idNumber":             "id_number",
	"maritalStatus":        "marital_status",
	"formFourNumber":       "form_four_number",
	"confirmPassword":      "confirm_password",
	"passportPhoto":        "passport_photo",
	"birthCertificate":     "birth_certificate",
	"educationCertificate": "education_certificate",
}

// Remap returns a copy of in where every key present in table is renamed to
// its mapped name. Keys not in table pass through unchanged. No validation
// is done here.
func Remap[V any](in map[string]V, table map[string]string) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		if _, mapped := table[k]; mapped {
			continue
		}
		out[k] = v
	}
	for external, internal := range table {
		if v, ok := in[external]; ok {
			out[internal] = v
		}
	}
	return out
}
