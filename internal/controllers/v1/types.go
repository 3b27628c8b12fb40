package v1

import (
	"github.com/nestegg-finance/backend/internal/uuid"
)

type URIID struct {
	ID uuid.UUID `uri:"id" binding:"required"` // ID of the resource
}

type QueryUser struct {
	User string `form:"user"` // ID of the user
}
