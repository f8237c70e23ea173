package models

import "time"

type UserProfile struct {
	User_Profile_ID int        `json:"userProfileId" goqu:"skipinsert"`
	Email           string     `json:"email"`
	Password        string     `json:"-"`
	First_Name      string     `json:"firstName"`
	Last_Name       string     `json:"lastName"`
	Role            string     `json:"role"`
	Approved_By     *int       `json:"approvedBy"`
	Approved_At     *time.Time `json:"approvedAt"`
	Created_By      int        `json:"createdBy"`
	Datetime_Create time.Time  `json:"datetimeCreate" goqu:"skipinsert"`
	Updated_By      int        `json:"updatedBy"`
	Datetime_Update time.Time  `json:"datetimeUpdate" goqu:"skipinsert"`
	Deleted         bool       `json:"deleted" goqu:"skipinsert"`
}

type UserProfileSignup struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	First_Name string `json:"firstName" binding:"required,max=100"`
	Last_Name  string `json:"lastName" binding:"required,max=100"`
}

type Login struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserProfileChangePassword struct {
	Old_Password string `json:"oldPassword" binding:"required"`
	New_Password string `json:"newPassword" binding:"required,min=8"`
}

// RoleUpdate promotes an account. pending is not a valid target.
type RoleUpdate struct {
	Role string `json:"role" binding:"required,oneof=member leader admin"`
}

// CurrentUser is what GET /users/me returns: the account plus its linked
// directory record and family, when they exist.
type CurrentUser struct {
	User   UserProfile `json:"user"`
	Person *Person     `json:"person"`
	Family *Family     `json:"family"`
	Admin  bool        `json:"admin"`
}
