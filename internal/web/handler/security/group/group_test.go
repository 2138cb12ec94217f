package group_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/security/group"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/security/securitytest"
)

func itemPath(id uint) string {
	return fmt.Sprintf("%s/%d", group.Path, id)
}

type groupItem struct {
	ID     uint `json:"id"`
	Result struct {
		Name        string `json:"name"`
		Label       string `json:"label"`
		Description string `json:"description"`
		Roles       []struct {
			ID   uint   `json:"id"`
			Name string `json:"name"`
		} `json:"roles"`
		Users []struct {
			ID   uint   `json:"id"`
			Name string `json:"name"`
		} `json:"users"`
	} `json:"result"`
}

func TestCreateAndGetGroup(t *testing.T) {
	env := securitytest.New(t)

	role, err := env.Manager.AddRole("Operators")
	require.NoError(t, err)

	resp := env.Request(t, http.MethodPost, group.Path, env.AdminToken,
		map[string]interface{}{
			"name":        "ops",
			"label":       "Operations",
			"description": "on-call staff",
			"roles":       []uint{role.ID},
			"users":       []uint{env.Admin.ID},
		})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created groupItem
	securitytest.Decode(t, resp, &created)
	require.NotZero(t, created.ID)

	resp = env.Request(t, http.MethodGet, itemPath(created.ID), env.AdminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched groupItem
	securitytest.Decode(t, resp, &fetched)

	assert.Equal(t, "ops", fetched.Result.Name)
	assert.Equal(t, "Operations", fetched.Result.Label)
	require.Len(t, fetched.Result.Roles, 1)
	assert.Equal(t, "Operators", fetched.Result.Roles[0].Name)
	require.Len(t, fetched.Result.Users, 1)
	assert.Equal(t, "admin", fetched.Result.Users[0].Name)
}

func TestCreateGroupMissingName(t *testing.T) {
	env := securitytest.New(t)

	resp := env.Request(t, http.MethodPost, group.Path, env.AdminToken,
		map[string]interface{}{"label": "Operations"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errBody struct {
		Message map[string][]string `json:"message"`
	}

	securitytest.Decode(t, resp, &errBody)
	require.Contains(t, errBody.Message, "name")
	assert.Equal(t, "Missing data for required field.", errBody.Message["name"][0])
}

func TestCreateGroupUnknownRole(t *testing.T) {
	env := securitytest.New(t)

	resp := env.Request(t, http.MethodPost, group.Path, env.AdminToken,
		map[string]interface{}{"name": "ops", "roles": []uint{9999}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errBody struct {
		Message map[string][]string `json:"message"`
	}

	securitytest.Decode(t, resp, &errBody)
	require.Contains(t, errBody.Message, "roles")

	// the refused create must not leave the group behind
	found, err := env.Manager.FindGroup("ops")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestCreateGroupDuplicate(t *testing.T) {
	env := securitytest.New(t)

	resp := env.Request(t, http.MethodPost, group.Path, env.AdminToken,
		map[string]interface{}{"name": "ops"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.Request(t, http.MethodPost, group.Path, env.AdminToken,
		map[string]interface{}{"name": "ops"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUpdateGroupPartial(t *testing.T) {
	env := securitytest.New(t)

	created, err := env.Manager.AddGroup("ops", "Operations", "on-call", nil, nil)
	require.NoError(t, err)

	resp := env.Request(t, http.MethodPut, itemPath(created.ID), env.AdminToken,
		map[string]interface{}{"label": "Operations EU"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated groupItem
	securitytest.Decode(t, resp, &updated)

	assert.Equal(t, "ops", updated.Result.Name)
	assert.Equal(t, "Operations EU", updated.Result.Label)
	assert.Equal(t, "on-call", updated.Result.Description)
}

func TestUpdateGroupMembership(t *testing.T) {
	env := securitytest.New(t)

	created, err := env.Manager.AddGroup("ops", "", "", nil, nil)
	require.NoError(t, err)

	role, err := env.Manager.AddRole("Operators")
	require.NoError(t, err)

	resp := env.Request(t, http.MethodPut, itemPath(created.ID), env.AdminToken,
		map[string]interface{}{
			"roles": []uint{role.ID},
			"users": []uint{env.Admin.ID},
		})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated groupItem
	securitytest.Decode(t, resp, &updated)
	require.Len(t, updated.Result.Roles, 1)
	require.Len(t, updated.Result.Users, 1)

	// unknown referenced ids answer 404 and keep the membership intact
	resp = env.Request(t, http.MethodPut, itemPath(created.ID), env.AdminToken,
		map[string]interface{}{"users": []uint{9999}})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	reloaded, err := env.Manager.FindGroup("ops")
	require.NoError(t, err)
	require.Len(t, reloaded.Users, 1)
}

func TestUpdateGroupUnknownUserKeepsFields(t *testing.T) {
	env := securitytest.New(t)

	created, err := env.Manager.AddGroup("staff", "Staff", "all staff", nil, nil)
	require.NoError(t, err)

	// the rename rides along with the bad user id: the 404 must leave it
	// unwritten
	resp := env.Request(t, http.MethodPut, itemPath(created.ID), env.AdminToken,
		map[string]interface{}{
			"label": "Renamed",
			"users": []uint{9999},
		})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	reloaded, err := env.Manager.FindGroup("staff")
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, "Staff", reloaded.Label,
		"rejected update must not persist field changes")
}

func TestDeleteGroup(t *testing.T) {
	env := securitytest.New(t)

	created, err := env.Manager.AddGroup("ops", "", "", nil, nil)
	require.NoError(t, err)

	resp := env.Request(t, http.MethodDelete, itemPath(created.ID), env.AdminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.Request(t, http.MethodGet, itemPath(created.ID), env.AdminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.Request(t, http.MethodDelete, itemPath(created.ID), env.AdminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGroupListFilter(t *testing.T) {
	env := securitytest.New(t)

	_, err := env.Manager.AddGroup("ops", "Operations", "", nil, nil)
	require.NoError(t, err)
	_, err = env.Manager.AddGroup("sales", "Sales", "", nil, nil)
	require.NoError(t, err)

	resp := env.Request(t, http.MethodGet,
		group.Path+`?q={"filters":[{"col":"name","opr":"eq","value":"sales"}]}`,
		env.AdminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Count  int64 `json:"count"`
		Result []struct {
			Name string `json:"name"`
		} `json:"result"`
	}

	securitytest.Decode(t, resp, &list)
	require.Equal(t, int64(1), list.Count)
	assert.Equal(t, "sales", list.Result[0].Name)
}
