package group

import (
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
)

func toResponse(g *models.Group) response {
	roles := make([]relatedItem, len(g.Roles))
	for i := range g.Roles {
		roles[i] = relatedItem{ID: g.Roles[i].ID, Name: g.Roles[i].Name}
	}

	users := make([]relatedItem, len(g.Users))
	for i := range g.Users {
		users[i] = relatedItem{ID: g.Users[i].ID, Name: g.Users[i].Username}
	}

	return response{
		Name:        g.Name,
		Label:       g.Label,
		Description: g.Description,
		Roles:       roles,
		Users:       users,
	}
}

func toResponses(groups []models.Group) []response {
	out := make([]response, len(groups))
	for i := range groups {
		out[i] = toResponse(&groups[i])
	}

	return out
}

