package models

import "time"

type PushToken struct {
	User_Push_Tokens_ID int       `json:"userPushTokenId" db:"user_push_tokens_id" goqu:"skipinsert"`
	User_Profile_ID     int       `json:"userProfileId" db:"user_profile_id"`
	Push_Token          string    `json:"pushToken" db:"push_token"`
	Platform            string    `json:"platform" db:"platform"`
	Created_At          time.Time `json:"createdAt" db:"created_at" goqu:"skipinsert"`
	Updated_At          time.Time `json:"updatedAt" db:"updated_at"`
}

type PushTokenRequest struct {
	Push_Token string `json:"pushToken" binding:"required"`
	Platform   string `json:"platform" binding:"required,oneof=ios android"`
}
