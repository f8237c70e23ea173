package models

import "time"

// Person is a directory record. It may exist without a login account
// (User_Profile_ID nil) and belongs to at most one family.
type Person struct {
	Person_ID         int        `json:"personId" goqu:"skipinsert"`
	First_Name        string     `json:"firstName"`
	Last_Name         string     `json:"lastName"`
	Email             *string    `json:"email"`
	Phone             *string    `json:"phone"`
	Date_Of_Birth     *time.Time `json:"dateOfBirth"`
	Is_Head_Of_Family bool       `json:"isHeadOfFamily"`
	Is_Spouse         bool       `json:"isSpouse"`
	Family_ID         *int       `json:"familyId"`
	User_Profile_ID   *int       `json:"userProfileId"`
	Photo_URL         *string    `json:"photoUrl"`
	Created_By        int        `json:"createdBy"`
	Datetime_Create   time.Time  `json:"datetimeCreate" goqu:"skipinsert"`
	Updated_By        int        `json:"updatedBy"`
	Datetime_Update   time.Time  `json:"datetimeUpdate" goqu:"skipinsert"`
}

type PersonCreate struct {
	First_Name    string     `json:"firstName" binding:"required,max=100"`
	Last_Name     string     `json:"lastName" binding:"required,max=100"`
	Email         *string    `json:"email" binding:"omitempty,email"`
	Phone         *string    `json:"phone" binding:"omitempty,max=30"`
	Date_Of_Birth *time.Time `json:"dateOfBirth"`
	Photo_URL     *string    `json:"photoUrl"`
}

type PersonUpdate struct {
	First_Name        *string    `json:"firstName" binding:"omitempty,min=1,max=100"`
	Last_Name         *string    `json:"lastName" binding:"omitempty,min=1,max=100"`
	Email             *string    `json:"email" binding:"omitempty,email"`
	Phone             *string    `json:"phone" binding:"omitempty,max=30"`
	Date_Of_Birth     *time.Time `json:"dateOfBirth"`
	Is_Head_Of_Family *bool      `json:"isHeadOfFamily"`
	Is_Spouse         *bool      `json:"isSpouse"`
	Photo_URL         *string    `json:"photoUrl"`
}
