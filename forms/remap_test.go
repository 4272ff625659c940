package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistrationTableSize(t *testing.T) {
	assert.Len(t, RegistrationFields, 12)
}

func TestRemapRenamesPresentKeys(t *testing.T) {
	in := map[string][]string{
		"firstName":       {"Asha"},
		"confirmPassword": {"secret1"},
		"email":           {"a@x.com"},
	}
	out := Remap(in, RegistrationFields)

	assert.Equal(t, map[string][]string{
		"first_name":       {"Asha"},
		"confirm_password": {"secret1"},
		"email":            {"a@x.com"},
	}, out)
	assert.Contains(t, in, "firstName", "input must not be modified")
}

func TestRemapLeavesAbsentKeysAbsent(t *testing.T) {
	out := Remap(map[string]int{"gender": 1}, RegistrationFields)
	assert.Equal(t, map[string]int{"gender": 1}, out)
	assert.NotContains(t, out, "middle_name")
}

func TestRemapMappedNameWins(t *testing.T) {
	// The renamed value replaces a value already sent under the internal name.
	out := Remap(map[string]string{"lastName": "new", "last_name": "old"}, RegistrationFields)
	assert.Equal(t, "new", out["last_name"])
	assert.NotContains(t, out, "lastName")
}
