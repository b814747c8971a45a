package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"

	"omrscan/internal/config"
	"omrscan/internal/domain"
	"omrscan/internal/imaging"
	"omrscan/internal/omr"
	"omrscan/internal/port"
)

// multiCropRanges are the fixed question ranges of the five-column sheet
// layout the frontend crops against.
var multiCropRanges = [5][2]int{{1, 10}, {11, 20}, {21, 30}, {31, 40}, {41, 50}}

// SheetIdentityInput carries caller-supplied identity overrides. nil fields
// fall through to AI-extracted values.
type SheetIdentityInput struct {
	StudentName *string
	RollNumber  *string
	ExamDate    *string
}

// ProcessFullInput is the DTO for full-sheet processing against a template.
type ProcessFullInput struct {
	TemplateID uuid.UUID
	Image      []byte
	Identity   SheetIdentityInput
}

// ProcessFullByKeyInput is the DTO for full-sheet processing against a stored
// answer key.
type ProcessFullByKeyInput struct {
	AnswerKeyID uuid.UUID
	Image       []byte
	Identity    SheetIdentityInput
}

// ProcessRegionInput is the DTO for coordinate-cropped processing: the caller
// supplies relative crop coordinates and the server cuts the region out.
type ProcessRegionInput struct {
	AnswerKeyID uuid.UUID
	Image       []byte
	Region      imaging.CropRegion
	Identity    SheetIdentityInput
}

// ProcessCroppedInput is the DTO for pre-cropped single-region processing.
type ProcessCroppedInput struct {
	AnswerKeyID uuid.UUID
	Image       []byte
	Identity    SheetIdentityInput
}

// ProcessMultiCropInput is the DTO for fixed five-region processing.
type ProcessMultiCropInput struct {
	AnswerKeyID uuid.UUID
	Crops       [][]byte
	Identity    SheetIdentityInput
}

// ExtractIdentityInput is the DTO for identity-only extraction. Region is
// optional; when nil the image is assumed to be pre-cropped.
type ExtractIdentityInput struct {
	Image  []byte
	Region *imaging.CropRegion
}

// IdentityResult is the outcome of identity-only extraction.
type IdentityResult struct {
	StudentName *string `json:"student_name"`
	RollNumber  *string `json:"roll_number"`
	ExamDate    *string `json:"exam_date"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// SheetService defines the sheet processing and management contract.
type SheetService interface {
	ProcessFull(ctx context.Context, input ProcessFullInput) (*domain.Sheet, error)
	ProcessFullByAnswerKey(ctx context.Context, input ProcessFullByKeyInput) (*domain.Sheet, error)
	ProcessRegion(ctx context.Context, input ProcessRegionInput) (*domain.Sheet, error)
	ProcessCropped(ctx context.Context, input ProcessCroppedInput) (*domain.Sheet, error)
	ProcessMultiCrop(ctx context.Context, input ProcessMultiCropInput) (*domain.Sheet, error)
	ExtractIdentity(ctx context.Context, input ExtractIdentityInput) (*IdentityResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Sheet, error)
	List(ctx context.Context, offset, limit int) ([]domain.Sheet, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type sheetService struct {
	sheetRepo    port.SheetRepository
	templateRepo port.TemplateRepository
	keyRepo      port.AnswerKeyRepository
	storage      port.ObjectStorage
	processor    *omr.Processor
	aggregator   *omr.Aggregator
	cfg          *config.S3Config
}

// NewSheetService creates a new SheetService implementation.
func NewSheetService(
	sheetRepo port.SheetRepository,
	templateRepo port.TemplateRepository,
	keyRepo port.AnswerKeyRepository,
	storage port.ObjectStorage,
	processor *omr.Processor,
	aggregator *omr.Aggregator,
	cfg *config.S3Config,
) SheetService {
	return &sheetService{
		sheetRepo:    sheetRepo,
		templateRepo: templateRepo,
		keyRepo:      keyRepo,
		storage:      storage,
		processor:    processor,
		aggregator:   aggregator,
		cfg:          cfg,
	}
}

func (s *sheetService) ProcessFull(ctx context.Context, input ProcessFullInput) (*domain.Sheet, error) {
	contentType, err := s.validateImage(input.Image)
	if err != nil {
		return nil, err
	}

	tpl, err := s.templateRepo.GetByID(ctx, input.TemplateID)
	if err != nil {
		return nil, err
	}
	key, err := omr.ParseKey(tpl.AnswerKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAnswerKey, err)
	}

	return s.processFullSheet(ctx, tpl, key, input.Image, contentType, input.Identity)
}

func (s *sheetService) ProcessFullByAnswerKey(ctx context.Context, input ProcessFullByKeyInput) (*domain.Sheet, error) {
	contentType, err := s.validateImage(input.Image)
	if err != nil {
		return nil, err
	}

	tpl, key, err := s.mirrorTemplate(ctx, input.AnswerKeyID)
	if err != nil {
		return nil, err
	}
	return s.processFullSheet(ctx, tpl, key, input.Image, contentType, input.Identity)
}

func (s *sheetService) processFullSheet(ctx context.Context, tpl *domain.Template, key omr.Key,
	image []byte, contentType string, identity SheetIdentityInput) (*domain.Sheet, error) {

	bucket, objectKey, err := s.storeImage(ctx, "sheets", image, contentType)
	if err != nil {
		return nil, err
	}

	res := s.processor.Process(ctx, image, contentType, omr.FullSheet(), key)
	if res.Failed() {
		return nil, failureToError(res.Failure)
	}

	scored := omr.Score(res.Extraction.Responses, key)
	resolved := omr.ResolveIdentity(identityFromInput(identity), identityFromExtraction(res.Extraction))

	sheet, err := s.buildSheet(tpl.ID, resolved, scored, res.Extraction.OtherDetails, nil, bucket, objectKey)
	if err != nil {
		return nil, err
	}
	if err := s.sheetRepo.Create(ctx, sheet); err != nil {
		return nil, err
	}
	log.Printf("sheetService: sheet %s scored %d/%d (%s)", sheet.ID, sheet.CorrectCount, sheet.TotalQuestions, sheet.Percentage)
	s.presign(ctx, sheet)
	return sheet, nil
}

func (s *sheetService) ProcessRegion(ctx context.Context, input ProcessRegionInput) (*domain.Sheet, error) {
	if _, err := s.validateImage(input.Image); err != nil {
		return nil, err
	}
	cropped, err := imaging.Crop(input.Image, input.Region)
	if err != nil {
		return nil, err
	}
	return s.ProcessCropped(ctx, ProcessCroppedInput{
		AnswerKeyID: input.AnswerKeyID,
		Image:       cropped,
		Identity:    input.Identity,
	})
}

func (s *sheetService) ProcessCropped(ctx context.Context, input ProcessCroppedInput) (*domain.Sheet, error) {
	contentType, err := s.validateImage(input.Image)
	if err != nil {
		return nil, err
	}

	tpl, key, err := s.mirrorTemplate(ctx, input.AnswerKeyID)
	if err != nil {
		return nil, err
	}

	bucket, objectKey, err := s.storeImage(ctx, "crops", input.Image, contentType)
	if err != nil {
		return nil, err
	}

	// The crop covers the whole response grid, so the region spans the full
	// key range.
	res := s.processor.Process(ctx, input.Image, contentType, omr.QuestionRange(1, len(key)), key)
	if res.Failed() {
		return nil, failureToError(res.Failure)
	}

	scored := omr.Score(res.Extraction.Responses, key)
	resolved := omr.ResolveIdentity(identityFromInput(input.Identity), identityFromExtraction(res.Extraction))

	sheet, err := s.buildSheet(tpl.ID, resolved, scored, res.Extraction.OtherDetails, nil, bucket, objectKey)
	if err != nil {
		return nil, err
	}
	if err := s.sheetRepo.Create(ctx, sheet); err != nil {
		return nil, err
	}
	log.Printf("sheetService: cropped sheet %s scored %d/%d (%s)", sheet.ID, sheet.CorrectCount, sheet.TotalQuestions, sheet.Percentage)
	s.presign(ctx, sheet)
	return sheet, nil
}

func (s *sheetService) ProcessMultiCrop(ctx context.Context, input ProcessMultiCropInput) (*domain.Sheet, error) {
	if len(input.Crops) != len(multiCropRanges) {
		return nil, domain.ErrWrongCropCount
	}

	regions := make([]omr.Region, 0, len(input.Crops))
	for i, crop := range input.Crops {
		contentType, err := s.validateImage(crop)
		if err != nil {
			return nil, fmt.Errorf("crop %d: %w", i+1, err)
		}
		regions = append(regions, omr.Region{
			Image:       crop,
			ContentType: contentType,
			Start:       multiCropRanges[i][0],
			End:         multiCropRanges[i][1],
		})
	}

	tpl, key, err := s.mirrorTemplate(ctx, input.AnswerKeyID)
	if err != nil {
		return nil, err
	}

	// Keep the first crop as the stored reference image for the sheet.
	bucket, objectKey, err := s.storeImage(ctx, "crops", input.Crops[0], regions[0].ContentType)
	if err != nil {
		return nil, err
	}

	merged, procErrs := s.aggregator.Aggregate(ctx, regions, key)
	if len(procErrs) > 0 {
		log.Printf("sheetService.ProcessMultiCrop: %d of %d regions failed: %v",
			len(procErrs), len(regions), procErrs)
	}

	scored := omr.Score(merged, key)
	resolved := omr.ResolveIdentity(identityFromInput(input.Identity), omr.Identity{})

	sheet, err := s.buildSheet(tpl.ID, resolved, scored, nil, procErrs, bucket, objectKey)
	if err != nil {
		return nil, err
	}
	if err := s.sheetRepo.Create(ctx, sheet); err != nil {
		return nil, err
	}
	log.Printf("sheetService: multi-crop sheet %s scored %d/%d (%s), %d region errors",
		sheet.ID, sheet.CorrectCount, sheet.TotalQuestions, sheet.Percentage, len(procErrs))
	s.presign(ctx, sheet)
	return sheet, nil
}

func (s *sheetService) ExtractIdentity(ctx context.Context, input ExtractIdentityInput) (*IdentityResult, error) {
	if _, err := s.validateImage(input.Image); err != nil {
		return nil, err
	}

	image := input.Image
	contentType := http.DetectContentType(image)
	if input.Region != nil {
		cropped, err := imaging.Crop(image, *input.Region)
		if err != nil {
			return nil, err
		}
		image = cropped
		contentType = "image/png"
	}

	bucket, objectKey, err := s.storeImage(ctx, "identity", image, contentType)
	if err != nil {
		return nil, err
	}

	res := s.processor.Process(ctx, image, contentType, omr.IdentityOnly(), nil)
	if res.Failed() {
		return nil, failureToError(res.Failure)
	}

	// Resolving against an empty explicit identity normalizes empty strings
	// from the model to absent fields.
	resolved := omr.ResolveIdentity(omr.Identity{}, identityFromExtraction(res.Extraction))

	result := &IdentityResult{
		StudentName: resolved.StudentName,
		RollNumber:  resolved.RollNumber,
		ExamDate:    resolved.ExamDate,
	}
	if url, err := s.storage.GetPresignedURL(ctx, bucket, objectKey, s.cfg.PresignExpiry); err == nil {
		result.ImageURL = url
	} else {
		log.Printf("sheetService.ExtractIdentity: presign failed: %v", err)
	}
	return result, nil
}

func (s *sheetService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sheet, error) {
	sheet, err := s.sheetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.presign(ctx, sheet)
	return sheet, nil
}

func (s *sheetService) List(ctx context.Context, offset, limit int) ([]domain.Sheet, int, error) {
	sheets, total, err := s.sheetRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	for i := range sheets {
		s.presign(ctx, &sheets[i])
	}
	return sheets, total, nil
}

func (s *sheetService) Delete(ctx context.Context, id uuid.UUID) error {
	sheet, err := s.sheetRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sheet.ImageKey != "" {
		if err := s.storage.Delete(ctx, sheet.ImageBucket, sheet.ImageKey); err != nil {
			log.Printf("sheetService.Delete: failed to delete image %s: %v", sheet.ImageKey, err)
		}
	}
	return s.sheetRepo.Delete(ctx, id)
}

func (s *sheetService) validateImage(data []byte) (string, error) {
	return validateImage(data, s.cfg.MaxFileSizeMB)
}

// validateImage rejects empty, oversized, and non-image uploads, returning
// the detected content type. Every path that hands bytes to the vision model
// goes through here first.
func validateImage(data []byte, maxSizeMB int64) (string, error) {
	if len(data) == 0 {
		return "", domain.ErrEmptyUpload
	}
	if int64(len(data)) > maxSizeMB*1024*1024 {
		return "", domain.ErrFileTooLarge
	}
	contentType := http.DetectContentType(data)
	if !domain.AllowedContentTypes[contentType] {
		return "", domain.ErrUnsupportedFileType
	}
	return contentType, nil
}

func (s *sheetService) storeImage(ctx context.Context, prefix string, data []byte, contentType string) (string, string, error) {
	ext := "png"
	if contentType == "image/jpeg" {
		ext = "jpg"
	}
	objectKey := fmt.Sprintf("%s/%s.%s", prefix, uuid.New(), ext)

	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         objectKey,
		Body:        bytes.NewReader(data),
		ContentType: contentType,
		Size:        int64(len(data)),
	})
	if err != nil {
		log.Printf("sheetService.storeImage: upload of %s failed: %v", objectKey, err)
		return "", "", domain.ErrUploadFailed
	}
	return s.cfg.Bucket, objectKey, nil
}

// mirrorTemplate finds or creates the template that mirrors a stored answer
// key, so every sheet hangs off a template regardless of which path graded it.
func (s *sheetService) mirrorTemplate(ctx context.Context, answerKeyID uuid.UUID) (*domain.Template, omr.Key, error) {
	stored, err := s.keyRepo.GetByID(ctx, answerKeyID)
	if err != nil {
		return nil, nil, err
	}
	key, err := omr.ParseKey(stored.AnswerKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidAnswerKey, err)
	}

	name := fmt.Sprintf("AK #%s: %s", stored.ID, stored.Name)
	tpl, err := s.templateRepo.GetByName(ctx, name)
	if err == nil {
		return tpl, key, nil
	}
	if !errors.Is(err, domain.ErrTemplateNotFound) {
		return nil, nil, err
	}

	tpl = &domain.Template{
		ID:             uuid.New(),
		Name:           name,
		Description:    stored.Description,
		TotalQuestions: len(key),
		AnswerKey:      stored.AnswerKey,
	}
	if err := s.templateRepo.Create(ctx, tpl); err != nil {
		return nil, nil, err
	}
	return tpl, key, nil
}

func (s *sheetService) buildSheet(templateID uuid.UUID, identity omr.Identity, scored omr.ScoredSheet,
	otherDetails map[string]any, procErrs []string, bucket, objectKey string) (*domain.Sheet, error) {

	if otherDetails == nil {
		otherDetails = map[string]any{}
	}
	if len(procErrs) > 0 {
		otherDetails["processing_errors"] = procErrs
	}
	detailsJSON, err := json.Marshal(otherDetails)
	if err != nil {
		return nil, fmt.Errorf("encoding other details: %w", err)
	}

	responses := scored.Responses
	if responses == nil {
		responses = omr.ResponseMap{}
	}
	responsesJSON, err := json.Marshal(responses)
	if err != nil {
		return nil, fmt.Errorf("encoding responses: %w", err)
	}

	return &domain.Sheet{
		ID:              uuid.New(),
		TemplateID:      templateID,
		StudentName:     identity.StudentName,
		RollNumber:      identity.RollNumber,
		ExamDate:        identity.ExamDate,
		OtherDetails:    detailsJSON,
		Responses:       responsesJSON,
		ImageBucket:     bucket,
		ImageKey:        objectKey,
		CorrectCount:    scored.CorrectCount,
		WrongCount:      scored.WrongCount,
		UnansweredCount: scored.UnansweredCount,
		TotalQuestions:  scored.TotalQuestions,
		Percentage:      scored.Percentage,
	}, nil
}

func (s *sheetService) presign(ctx context.Context, sheet *domain.Sheet) {
	if sheet.ImageKey == "" {
		return
	}
	url, err := s.storage.GetPresignedURL(ctx, sheet.ImageBucket, sheet.ImageKey, s.cfg.PresignExpiry)
	if err != nil {
		log.Printf("sheetService: presign for sheet %s failed: %v", sheet.ID, err)
		return
	}
	sheet.ImageURL = url
}

func identityFromInput(in SheetIdentityInput) omr.Identity {
	return omr.Identity{
		StudentName: in.StudentName,
		RollNumber:  in.RollNumber,
		ExamDate:    in.ExamDate,
	}
}

func identityFromExtraction(ex *omr.Extraction) omr.Identity {
	return omr.Identity{
		StudentName: ex.StudentName,
		RollNumber:  ex.RollNumber,
		ExamDate:    ex.ExamDate,
	}
}
