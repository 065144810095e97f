package models

// Profile defines the structure for user profiles.
// Identity is the opaque UserID assigned at account creation; every other
// field is owner-editable and optional until matching requires it.
type Profile struct {
	UserID           string   `dynamodbav:"userId" json:"userId"` // Partition Key
	DisplayName      string   `dynamodbav:"displayName,omitempty" json:"displayName,omitempty"`
	Age              int      `dynamodbav:"age,omitempty" json:"age,omitempty"`
	Major            string   `dynamodbav:"major,omitempty" json:"major,omitempty"`
	Goals            string   `dynamodbav:"goals,omitempty" json:"goals,omitempty"`
	FunFact          string   `dynamodbav:"funFact,omitempty" json:"funFact,omitempty"`
	Sports           []string `dynamodbav:"sports,omitempty" json:"sports,omitempty"`
	Availability     []string `dynamodbav:"availability,omitempty" json:"availability,omitempty"`
	LiftingExpertise []string `dynamodbav:"liftingExpertise,omitempty" json:"liftingExpertise,omitempty"`
	Photos           []string `dynamodbav:"photos,omitempty" json:"photos,omitempty"`
}

// ProfilesTable is the DynamoDB table name for user profiles
const ProfilesTable = "Profiles"

const (
	// MinAge and MaxAge bound the age accepted at the store boundary.
	MinAge = 13
	MaxAge = 120
)

// MissingRequiredFields reports which fields a profile still needs before it
// can be used as a matching basis. Empty result means the profile is complete.
func (p Profile) MissingRequiredFields() []string {
	var missing []string
	if p.DisplayName == "" {
		missing = append(missing, "displayName")
	}
	if p.Age < MinAge || p.Age > MaxAge {
		missing = append(missing, "age")
	}
	if p.Major == "" {
		missing = append(missing, "major")
	}
	return missing
}
