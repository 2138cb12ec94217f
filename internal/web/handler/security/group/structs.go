package group

type createRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Label       string `json:"label" validate:"max=150"`
	Description string `json:"description" validate:"max=512"`
	Roles       []uint `json:"roles"`
	Users       []uint `json:"users"`
}

// updateRequest uses pointers so absent fields are left untouched.
type updateRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Label       *string `json:"label" validate:"omitempty,max=150"`
	Description *string `json:"description" validate:"omitempty,max=512"`
	Roles       *[]uint `json:"roles"`
	Users       *[]uint `json:"users"`
}

type relatedItem struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type response struct {
	Name        string        `json:"name"`
	Label       string        `json:"label"`
	Description string        `json:"description"`
	Roles       []relatedItem `json:"roles"`
	Users       []relatedItem `json:"users"`
}
