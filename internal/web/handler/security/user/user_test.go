package user_test

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/security/securitytest"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/security/user"
)

func validCreateBody(roleID uint) map[string]interface{} {
	return map[string]interface{}{
		"username":   "alice",
		"first_name": "Alice",
		"last_name":  "Doe",
		"email":      "alice@example.com",
		"password":   "AB@12abcef",
		"roles":      []uint{roleID},
	}
}

func adminRoleID(t *testing.T, env *securitytest.Env) uint {
	t.Helper()

	role, err := env.Manager.FindRole("Admin")
	require.NoError(t, err)
	require.NotNil(t, role)

	return role.ID
}

func TestCreateAndGetUser(t *testing.T) {
	env := securitytest.New(t)

	resp := env.Request(t, http.MethodPost, user.Path, env.AdminToken,
		validCreateBody(adminRoleID(t, env)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID     uint `json:"id"`
		Result struct {
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"result"`
	}

	securitytest.Decode(t, resp, &created)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "alice", created.Result.Username)

	resp = env.Request(t, http.MethodGet, user.Path+"/2", env.AdminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched struct {
		ID     uint `json:"id"`
		Result struct {
			Username  string `json:"username"`
			FirstName string `json:"first_name"`
			Email     string `json:"email"`
			Roles     []struct {
				Name string `json:"name"`
			} `json:"roles"`
		} `json:"result"`
	}

	securitytest.Decode(t, resp, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "alice", fetched.Result.Username)
	assert.Equal(t, "Alice", fetched.Result.FirstName)
	require.Len(t, fetched.Result.Roles, 1)
	assert.Equal(t, "Admin", fetched.Result.Roles[0].Name)
}

func TestCreateUserRequiresRolesOrGroups(t *testing.T) {
	env := securitytest.New(t)

	body := validCreateBody(0)
	body["roles"] = []uint{}
	delete(body, "groups")

	resp := env.Request(t, http.MethodPost, user.Path, env.AdminToken, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errBody struct {
		Message map[string][]string `json:"message"`
	}

	securitytest.Decode(t, resp, &errBody)
	require.Contains(t, errBody.Message, "_schema")
	assert.Equal(t, user.MsgSchemaRolesOrGroups, errBody.Message["_schema"][0])
}

func TestCreateUserWithGroupOnly(t *testing.T) {
	env := securitytest.New(t)

	group, err := env.Manager.AddGroup("staff", "Staff", "", nil, nil)
	require.NoError(t, err)

	body := validCreateBody(0)
	delete(body, "roles")
	body["groups"] = []uint{group.ID}

	resp := env.Request(t, http.MethodPost, user.Path, env.AdminToken, body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCreateUserMissingFields(t *testing.T) {
	env := securitytest.New(t)

	body := validCreateBody(adminRoleID(t, env))
	delete(body, "email")

	resp := env.Request(t, http.MethodPost, user.Path, env.AdminToken, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errBody struct {
		Message map[string][]string `json:"message"`
	}

	securitytest.Decode(t, resp, &errBody)
	require.Contains(t, errBody.Message, "email")
	assert.Equal(t, "Missing data for required field.", errBody.Message["email"][0])
}

func TestCreateUserUnknownRoleID(t *testing.T) {
	env := securitytest.New(t)

	body := validCreateBody(9999)

	resp := env.Request(t, http.MethodPost, user.Path, env.AdminToken, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// nothing must be written
	found, err := env.Manager.FindUser("alice")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	env := securitytest.New(t)
	roleID := adminRoleID(t, env)

	resp := env.Request(t, http.MethodPost, user.Path, env.AdminToken, validCreateBody(roleID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := validCreateBody(roleID)
	body["email"] = "other@example.com"

	resp = env.Request(t, http.MethodPost, user.Path, env.AdminToken, body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUpdateUserKeepsPasswordHash(t *testing.T) {
	env := securitytest.New(t)

	resp := env.Request(t, http.MethodPost, user.Path, env.AdminToken,
		validCreateBody(adminRoleID(t, env)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	before, err := env.Manager.FindUser("alice")
	require.NoError(t, err)
	require.NotNil(t, before)

	resp = env.Request(t, http.MethodPut, user.Path+"/2", env.AdminToken,
		map[string]interface{}{"first_name": "Alicia"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	after, err := env.Manager.FindUser("alice")
	require.NoError(t, err)
	require.NotNil(t, after)

	assert.Equal(t, "Alicia", after.FirstName)
	assert.Equal(t, before.Password, after.Password,
		"editing unrelated fields must not touch the stored hash")

	// setting a new password must change the hash
	resp = env.Request(t, http.MethodPut, user.Path+"/2", env.AdminToken,
		map[string]interface{}{"password": "CD@34ghijk"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	changed, err := env.Manager.FindUser("alice")
	require.NoError(t, err)
	assert.NotEqual(t, before.Password, changed.Password)
	assert.True(t, changed.VerifyPassword("CD@34ghijk"))
}

func TestUpdateUserUnknownRoleIDIs404(t *testing.T) {
	env := securitytest.New(t)

	resp := env.Request(t, http.MethodPost, user.Path, env.AdminToken,
		validCreateBody(adminRoleID(t, env)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	before, err := env.Manager.FindUser("alice")
	require.NoError(t, err)
	require.NotNil(t, before)

	// profile and password changes ride along with the bad role id: the
	// 404 must leave all of them unwritten
	resp = env.Request(t, http.MethodPut, user.Path+"/2", env.AdminToken,
		map[string]interface{}{
			"first_name": "Mallory",
			"password":   "ZZ@99zzzzz",
			"roles":      []uint{9999},
		})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	after, err := env.Manager.FindUser("alice")
	require.NoError(t, err)
	require.NotNil(t, after)

	assert.Equal(t, "Alice", after.FirstName,
		"rejected update must not persist profile fields")
	assert.Equal(t, before.Password, after.Password,
		"rejected update must not persist a new password hash")
	require.Len(t, after.Roles, 1)
}

func TestUpdateUnknownUser(t *testing.T) {
	env := securitytest.New(t)

	resp := env.Request(t, http.MethodPut, user.Path+"/999", env.AdminToken,
		map[string]interface{}{"first_name": "Nobody"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errBody struct {
		Message string `json:"message"`
	}

	securitytest.Decode(t, resp, &errBody)
	assert.Equal(t, "Not found", errBody.Message)
}

func TestDeleteUser(t *testing.T) {
	env := securitytest.New(t)

	resp := env.Request(t, http.MethodPost, user.Path, env.AdminToken,
		validCreateBody(adminRoleID(t, env)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.Request(t, http.MethodDelete, user.Path+"/2", env.AdminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.Request(t, http.MethodGet, user.Path+"/2", env.AdminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// deleting again is a 404 without side effects
	resp = env.Request(t, http.MethodDelete, user.Path+"/2", env.AdminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListUsersWithFilter(t *testing.T) {
	env := securitytest.New(t)
	roleID := adminRoleID(t, env)

	resp := env.Request(t, http.MethodPost, user.Path, env.AdminToken, validCreateBody(roleID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.Request(t, http.MethodGet,
		user.Path+`?q={"filters":[{"col":"username","opr":"eq","value":"alice"}]}`,
		env.AdminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Count  int64 `json:"count"`
		Result []struct {
			Username string `json:"username"`
		} `json:"result"`
	}

	securitytest.Decode(t, resp, &list)
	require.Equal(t, int64(1), list.Count)
	assert.Equal(t, "alice", list.Result[0].Username)
}

func TestListUsersRelationFilter(t *testing.T) {
	env := securitytest.New(t)

	role, err := env.Manager.AddRole("Auditors")
	require.NoError(t, err)

	body := validCreateBody(role.ID)

	resp := env.Request(t, http.MethodPost, user.Path, env.AdminToken, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.Request(t, http.MethodGet,
		user.Path+`?q={"filters":[{"col":"roles","opr":"rel_m_m","value":`+
			itoa(role.ID)+`}]}`,
		env.AdminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Count  int64 `json:"count"`
		Result []struct {
			Username string `json:"username"`
		} `json:"result"`
	}

	securitytest.Decode(t, resp, &list)
	require.Equal(t, int64(1), list.Count)
	assert.Equal(t, "alice", list.Result[0].Username)
}

func TestUsersRequireToken(t *testing.T) {
	env := securitytest.New(t)

	resp := env.Request(t, http.MethodGet, user.Path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUsersInfo(t *testing.T) {
	env := securitytest.New(t)

	resp := env.Request(t, http.MethodGet, user.RouteInfo, env.AdminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info struct {
		Permissions []string                     `json:"permissions"`
		Filters     map[string][]json.RawMessage `json:"filters"`
	}

	securitytest.Decode(t, resp, &info)
	assert.Contains(t, info.Permissions, "can_read")
	assert.Contains(t, info.Permissions, "can_write")
	assert.Contains(t, info.Filters, "username")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
