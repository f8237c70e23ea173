package models

// DirectoryEntry is a person row joined with its family name and the role
// of its linked account. Role is nil for people without an account.
type DirectoryEntry struct {
	Person
	Family_Name *string `json:"familyName"`
	Role        *string `json:"role"`
}

type DirectoryFilter struct {
	Search_Text string
	Tag_IDs     []int
	Match_All   bool
	Role        string
}

// FamilyGroup is one bucket of the "by family" directory view. Family_ID is
// nil for the bucket holding people without a family.
type FamilyGroup struct {
	Family_ID   *int             `json:"familyId"`
	Family_Name string           `json:"familyName"`
	Members     []DirectoryEntry `json:"members"`
}

const (
	DirectoryViewFamily = "family"
	DirectoryViewPerson = "person"
)
