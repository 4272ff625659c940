package models

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "single"
	MaritalMarried  MaritalStatus = "married"
	MaritalDivorced MaritalStatus = "divorced"
	MaritalWidowed  MaritalStatus = "widowed"
)

func (m MaritalStatus) Valid() bool {
	switch m {
	case MaritalSingle, MaritalMarried, MaritalDivorced, MaritalWidowed:
		return true
	}
	return false
}

// Account is a registered applicant. It maps to the users collection/table.
// ID is assigned by the store on create.
type Account struct {
	ID               string        `bson:"-"`
	FirstName        string        `bson:"first_name"`
	MiddleName       string        `bson:"middle_name,omitempty"`
	LastName         string        `bson:"last_name"`
	DateOfBirth      time.Time     `bson:"date_of_birth"`
	PhoneNumber      string        `bson:"phone_number"`
	Email            string        `bson:"email"`
	Gender           Gender        `bson:"gender"`
	IDNumber         string        `bson:"id_number"`
	MaritalStatus    MaritalStatus `bson:"marital_status"`
	FormFourNumber   string        `bson:"form_four_number"`
	PasswordHash     string        `bson:"password"`
	RegistrationDate time.Time     `bson:"registration_date"`
	IsActive         bool          `bson:"is_active"`
}

// FullName is used by the admin listing.
func (a Account) FullName() string {
	return a.FirstName + " " + a.LastName
}
