package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"foodinsight/internal/config"
	"foodinsight/internal/models/request_models"
	"foodinsight/internal/services"
	"foodinsight/internal/storage"
	"foodinsight/pkg/session"
	"foodinsight/pkg/utils"
)

const historyOnDashboard = 20

// multipartSlack covers the form fields and boundaries around the image.
const multipartSlack = 1 << 20

type DashboardController struct {
	observations services.IObservationService
	storage      storage.Storage
	maxUpload    int64
	logger       *zap.Logger
}

func NewDashboardController(cfg *config.Config, observations services.IObservationService, store storage.Storage, logger *zap.Logger) *DashboardController {
	return &DashboardController{
		observations: observations,
		storage:      store,
		maxUpload:    cfg.Upload.MaxBytes,
		logger:       logger,
	}
}

// Show GET /dashboard
func (d *DashboardController) Show(c *gin.Context) {
	d.render(c)
}

func (d *DashboardController) render(c *gin.Context) {
	sess := session.Default(c)
	accountID, err := uuid.Parse(sess.AccountID())
	if err != nil {
		utils.HandleServiceError(c, d.logger, utils.ErrLoginRequired, "/login")
		return
	}
	history, err := d.observations.History(c.Request.Context(), accountID, historyOnDashboard)
	if err != nil {
		// the upload form still works without history
		d.logger.Error("load observation history", zap.String("account_id", accountID.String()), zap.Error(err))
	}
	utils.RenderPage(c, http.StatusOK, "dashboard.html", gin.H{
		"Title":   "Dashboard",
		"Gender":  sess.UserGender(),
		"History": history,
	})
}

// Submit POST /dashboard
func (d *DashboardController) Submit(c *gin.Context) {
	sess := session.Default(c)
	accountID, err := uuid.Parse(sess.AccountID())
	if err != nil {
		utils.HandleServiceError(c, d.logger, utils.ErrLoginRequired, "/login")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, d.maxUpload+multipartSlack)
	var form request_models.ObservationForm
	_ = c.ShouldBind(&form)
	age, height, weight, err := form.Parse()
	if err != nil {
		utils.HandleServiceError(c, d.logger, utils.ErrInvalidMetrics, "/dashboard")
		return
	}

	header, err := c.FormFile("food_image")
	if err != nil || header.Filename == "" || !services.AllowedImage(header.Filename) {
		utils.HandleServiceError(c, d.logger, utils.ErrInvalidImageType, "/dashboard")
		return
	}
	file, err := header.Open()
	if err != nil {
		utils.HandleServiceError(c, d.logger, utils.ErrInvalidImageType, "/dashboard")
		return
	}
	defer file.Close()

	outcome, err := d.observations.Submit(c.Request.Context(), request_models.SubmitObservation{
		AccountID: accountID,
		Gender:    sess.UserGender(),
		Age:       age,
		Height:    height,
		Weight:    weight,
		FileName:  header.Filename,
		Image:     file,
	})
	if err != nil {
		utils.HandleServiceError(c, d.logger, err, "/dashboard")
		return
	}

	utils.RenderPage(c, http.StatusOK, "result.html", gin.H{
		"Title":   outcome.Analysis.FoodName,
		"Gender":  sess.UserGender(),
		"Outcome": outcome,
	})
}

// Upload GET /uploads/:filename
func (d *DashboardController) Upload(c *gin.Context) {
	sess := session.Default(c)
	if !sess.LoggedIn() && !sess.IsAdmin() {
		c.Status(http.StatusNotFound)
		return
	}
	path, err := d.storage.Path(c.Param("filename"))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.File(path)
}
