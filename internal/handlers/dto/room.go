package dto

type CreateRoomRequest struct {
	Name       string `json:"name" binding:"required"`
	Type       string `json:"type" binding:"required,oneof=public private"`
	AccessCode string `json:"access_code"`
	MaxUsers   int    `json:"max_users"`
}

type UpdateRoomRequest struct {
	Name     string `json:"name"`
	Status   string `json:"status" binding:"omitempty,oneof=active closed"`
	MaxUsers int    `json:"max_users"`
}

type JoinRoomRequest struct {
	AccessCode string `json:"access_code"`
}
