package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodinsight/pkg/utils"
)

func TestAdminRoutesRequireAdmin(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	c.loginAsUser()

	w := c.get("/admin/dashboard")
	require.Equal(t, "/login", w.Header().Get("Location"))
	assert.Contains(t, c.follow(w), "Access denied. Admin privileges required.")

	w = c.post("/admin/delete_user/123", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Empty(t, app.admin.deleted)
}

func TestAdminDashboardAndDelete(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	c.loginAsAdmin()

	w := c.get("/admin/dashboard?q=jo")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Admin login successful!")
	assert.Contains(t, w.Body.String(), "jo@example.com")
	assert.Contains(t, w.Body.String(), `value="jo"`)

	w = c.post("/admin/delete_user/abc", nil)
	require.Equal(t, "/admin/dashboard", w.Header().Get("Location"))
	assert.Contains(t, c.follow(w), "User jo@example.com has been deleted successfully.")
	assert.Equal(t, []string{"abc"}, app.admin.deleted)

	app.admin.deleteErr = utils.ErrProtectedAccount
	w = c.post("/admin/delete_user/def", nil)
	assert.Contains(t, c.follow(w), "This account is protected and cannot be deleted!")

	app.admin.deleteErr = utils.ErrDatabaseError
	w = c.post("/admin/delete_user/def", nil)
	assert.Contains(t, c.follow(w), "Error deleting user. Please try again.")
}

func TestAdminTestEmailAndLogout(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	c.loginAsAdmin()

	w := c.get("/admin/test_email")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "RESEND_API_KEY is set")
	assert.Contains(t, w.Body.String(), "PASS")

	w = c.get("/admin/logout")
	assert.Contains(t, c.follow(w), "Admin logged out successfully.")
	assert.Equal(t, http.StatusFound, c.get("/admin/dashboard").Code)
}
