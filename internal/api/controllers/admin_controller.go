package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foodinsight/internal/services"
	"foodinsight/pkg/session"
	"foodinsight/pkg/utils"
)

type AdminController struct {
	admin  services.IAdminService
	mail   services.IMailService
	logger *zap.Logger
}

func NewAdminController(admin services.IAdminService, mail services.IMailService, logger *zap.Logger) *AdminController {
	return &AdminController{admin: admin, mail: mail, logger: logger}
}

// Dashboard GET /admin/dashboard?q=
func (a *AdminController) Dashboard(c *gin.Context) {
	listing, err := a.admin.ListAccounts(c.Request.Context(), c.Query("q"))
	if err != nil {
		utils.HandleServiceError(c, a.logger, err, "/login")
		return
	}
	utils.RenderPage(c, http.StatusOK, "admin_dashboard.html", gin.H{
		"Title":         "Admin",
		"Listing":       listing,
		"AdminUsername": session.Default(c).AdminUsername(),
	})
}

// DeleteUser POST /admin/delete_user/:id
func (a *AdminController) DeleteUser(c *gin.Context) {
	sess := session.Default(c)
	account, err := a.admin.DeleteAccount(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		sess.AddFlash(fmt.Sprintf(msgAccountDeleted, account.Email))
	case errors.Is(err, utils.ErrProtectedAccount), errors.Is(err, utils.ErrAccountNotFound):
		sess.AddFlash(utils.FlashMessage(err))
	default:
		a.logger.Error("delete account", zap.String("id", c.Param("id")), zap.Error(err))
		sess.AddFlash(msgAccountDeleteFailed)
	}
	utils.Redirect(c, "/admin/dashboard")
}

// TestEmail GET /admin/test_email
func (a *AdminController) TestEmail(c *gin.Context) {
	checks := a.mail.Diagnose(c.Request.Context())
	utils.RenderPage(c, http.StatusOK, "admin_test_email.html", gin.H{
		"Title":    "Email diagnostics",
		"Provider": a.mail.Provider(),
		"Checks":   checks,
	})
}

// Logout GET /admin/logout
func (a *AdminController) Logout(c *gin.Context) {
	sess := session.Default(c)
	sess.LogOutAdmin()
	sess.AddFlash(msgAdminLoggedOut)
	utils.Redirect(c, "/login")
}
