package user

import (
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
)

func toResponse(u *models.User) response {
	roles := make([]relatedItem, len(u.Roles))
	for i := range u.Roles {
		roles[i] = relatedItem{ID: u.Roles[i].ID, Name: u.Roles[i].Name}
	}

	groups := make([]relatedItem, len(u.Groups))
	for i := range u.Groups {
		groups[i] = relatedItem{ID: u.Groups[i].ID, Name: u.Groups[i].Name}
	}

	return response{
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		Active:         u.Active,
		LastLogin:      u.LastLogin,
		LoginCount:     u.LoginCount,
		FailLoginCount: u.FailLoginCount,
		Roles:          roles,
		Groups:         groups,
	}
}

func toResponses(users []models.User) []response {
	out := make([]response, len(users))
	for i := range users {
		out[i] = toResponse(&users[i])
	}

	return out
}
