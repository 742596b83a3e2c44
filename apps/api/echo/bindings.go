package echoapi

import (
	"github.com/go-playground/validator/v10"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}
)

func (r LoginRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}
