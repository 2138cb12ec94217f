package role

type writeRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

type permissionsRequest struct {
	PermissionViewMenuIDs []uint `json:"permission_view_menu_ids" validate:"required"`
}

type usersRequest struct {
	UserIDs []uint `json:"user_ids" validate:"required"`
}

type groupsRequest struct {
	GroupIDs []uint `json:"group_ids" validate:"required"`
}

type pairItem struct {
	ID             uint   `json:"id"`
	PermissionName string `json:"permission_name"`
	ViewMenuName   string `json:"view_menu_name"`
}

type response struct {
	Name string `json:"name"`
}
