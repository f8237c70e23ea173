package models

import "time"

type Family struct {
	Family_ID         int       `json:"familyId" goqu:"skipinsert"`
	Family_Name       string    `json:"familyName"`
	Address           *string   `json:"address"`
	City              *string   `json:"city"`
	State             *string   `json:"state"`
	Postal_Code       *string   `json:"postalCode"`
	Home_Phone        *string   `json:"homePhone"`
	Family_Join_Token string    `json:"familyJoinToken"`
	Photo_Path        *string   `json:"photoPath"`
	Created_By        int       `json:"createdBy"`
	Datetime_Create   time.Time `json:"datetimeCreate" goqu:"skipinsert"`
	Updated_By        int       `json:"updatedBy"`
	Datetime_Update   time.Time `json:"datetimeUpdate" goqu:"skipinsert"`
}

// FamilyCreate mirrors create_family_for_self(family_name, address?, phone?).
type FamilyCreate struct {
	Family_Name string  `json:"familyName" binding:"required,max=100"`
	Address     *string `json:"address" binding:"omitempty,max=200"`
	Home_Phone  *string `json:"homePhone" binding:"omitempty,max=30"`
}

type FamilyUpdate struct {
	Family_Name *string `json:"familyName" binding:"omitempty,min=1,max=100"`
	Address     *string `json:"address" binding:"omitempty,max=200"`
	City        *string `json:"city" binding:"omitempty,max=100"`
	State       *string `json:"state" binding:"omitempty,max=50"`
	Postal_Code *string `json:"postalCode" binding:"omitempty,max=20"`
	Home_Phone  *string `json:"homePhone" binding:"omitempty,max=30"`
	Photo_Path  *string `json:"photoPath"`
}

// FamilyJoin mirrors join_family_with_token(token).
type FamilyJoin struct {
	Token string `json:"token" binding:"required"`
}
