package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"foodinsight/internal/models/db_models"
	"foodinsight/internal/models/request_models"
	"foodinsight/internal/models/response_models"
	"foodinsight/internal/repositories"
	"foodinsight/internal/storage"
	"foodinsight/pkg/utils"
)

var allowedImageExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

type IObservationService interface {
	Submit(ctx context.Context, request request_models.SubmitObservation) (*response_models.ObservationOutcome, error)
	History(ctx context.Context, accountID uuid.UUID, limit int) ([]db_models.Observation, error)
}

type ObservationService struct {
	observationRepo repositories.ObservationRepository
	storage         storage.Storage
	analyzer        Analyzer
	maxBytes        int64
	logger          *zap.Logger
}

func NewObservationService(
	observationRepo repositories.ObservationRepository,
	store storage.Storage,
	analyzer Analyzer,
	maxBytes int64,
	logger *zap.Logger,
) IObservationService {
	return &ObservationService{
		observationRepo: observationRepo,
		storage:         store,
		analyzer:        analyzer,
		maxBytes:        maxBytes,
		logger:          logger,
	}
}

// AllowedImage reports whether name has one of the accepted extensions.
func AllowedImage(name string) bool {
	_, ok := allowedImageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

func (s *ObservationService) Submit(ctx context.Context, request request_models.SubmitObservation) (*response_models.ObservationOutcome, error) {
	if request.Age <= 0 || request.Height <= 0 || request.Weight <= 0 {
		return nil, utils.ErrInvalidMetrics
	}
	if request.Image == nil || !AllowedImage(request.FileName) {
		return nil, utils.ErrInvalidImageType
	}

	image, err := io.ReadAll(io.LimitReader(request.Image, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", utils.ErrStorageError, err)
	}
	if int64(len(image)) > s.maxBytes || len(image) == 0 {
		return nil, utils.ErrInvalidImageType
	}

	name, err := s.storage.Save(ctx, request.FileName, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrStorageError, err)
	}

	bmi := utils.CalculateBMI(request.Weight, request.Height)
	analysis := s.analyzer.Analyze(ctx, image, detectImageType(image, request.FileName), request_models.BodyMetrics{
		Age:    request.Age,
		Height: request.Height,
		Weight: request.Weight,
		Gender: request.Gender,
		BMI:    bmi,
	})

	raw, err := json.Marshal(analysis)
	if err != nil {
		raw = nil
	}
	observation := &db_models.Observation{
		AccountID:       request.AccountID,
		Age:             request.Age,
		Height:          request.Height,
		Weight:          request.Weight,
		FoodImage:       name,
		FoodName:        truncateRunes(analysis.FoodName, 255),
		NutritionInfo:   analysis.Nutrition,
		Assessment:      analysis.Suitability,
		DietPlan:        analysis.DietPlan,
		Recommendation:  analysis.Recommendation,
		AnalysisFailure: string(analysis.Failure),
		RawAnalysis:     datatypes.JSON(raw),
	}
	if err := s.observationRepo.Insert(ctx, observation); err != nil {
		if derr := s.storage.Delete(ctx, name); derr != nil {
			s.logger.Warn("remove orphaned upload", zap.String("file", name), zap.Error(derr))
		}
		return nil, dbError(err)
	}

	return &response_models.ObservationOutcome{
		Observation: observation,
		BMI:         bmi,
		ImagePath:   "/uploads/" + name,
		Analysis:    analysis,
	}, nil
}

func (s *ObservationService) History(ctx context.Context, accountID uuid.UUID, limit int) ([]db_models.Observation, error) {
	observations, err := s.observationRepo.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, dbError(err)
	}
	return observations, nil
}

// detectImageType sniffs the bytes and falls back to the extension for unusual encodings.
func detectImageType(image []byte, name string) string {
	ct := http.DetectContentType(image)
	if ct == "image/png" || ct == "image/jpeg" {
		return ct
	}
	return allowedImageExtensions[strings.ToLower(filepath.Ext(name))]
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
