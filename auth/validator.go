package auth

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CreateRoomRequest is the payload accepted by the room creation endpoint.
// Password is optional; supplying one makes the room private.
type CreateRoomRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=256"`
	Owner       string `json:"owner" validate:"required,max=32"`
	Password    string `json:"password" validate:"omitempty,min=4,max=72"`
}

func ValidateCreateRoom(req CreateRoomRequest) error {
	return validate.Struct(req)
}
