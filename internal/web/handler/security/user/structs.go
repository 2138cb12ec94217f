package user

import "time"

type createRequest struct {
	Username  string `json:"username" validate:"required,max=64"`
	FirstName string `json:"first_name" validate:"required,max=64"`
	LastName  string `json:"last_name" validate:"required,max=64"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required"`
	Roles     []uint `json:"roles"`
	Groups    []uint `json:"groups"`
}

// updateRequest uses pointers so absent fields are left untouched. An
// absent password keeps the stored hash.
type updateRequest struct {
	Username  *string `json:"username" validate:"omitempty,max=64"`
	FirstName *string `json:"first_name" validate:"omitempty,max=64"`
	LastName  *string `json:"last_name" validate:"omitempty,max=64"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	Password  *string `json:"password"`
	Active    *bool   `json:"active"`
	Roles     *[]uint `json:"roles"`
	Groups    *[]uint `json:"groups"`
}

type relatedItem struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type response struct {
	Username       string        `json:"username"`
	FirstName      string        `json:"first_name"`
	LastName       string        `json:"last_name"`
	Email          string        `json:"email"`
	Active         bool          `json:"active"`
	LastLogin      *time.Time    `json:"last_login"`
	LoginCount     int           `json:"login_count"`
	FailLoginCount int           `json:"fail_login_count"`
	Roles          []relatedItem `json:"roles"`
	Groups         []relatedItem `json:"groups"`
}
