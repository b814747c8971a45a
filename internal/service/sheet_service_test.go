package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omrscan/internal/config"
	"omrscan/internal/domain"
	"omrscan/internal/omr"
	"omrscan/internal/port"
	"omrscan/internal/service"
)

// testPNG returns a small valid PNG so content sniffing sees a real image.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeTemplateRepo struct {
	byID   map[uuid.UUID]*domain.Template
	byName map[string]*domain.Template
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{
		byID:   map[uuid.UUID]*domain.Template{},
		byName: map[string]*domain.Template{},
	}
}

func (r *fakeTemplateRepo) Create(_ context.Context, tpl *domain.Template) error {
	r.byID[tpl.ID] = tpl
	r.byName[tpl.Name] = tpl
	return nil
}

func (r *fakeTemplateRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Template, error) {
	tpl, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	return tpl, nil
}

func (r *fakeTemplateRepo) GetByName(_ context.Context, name string) (*domain.Template, error) {
	tpl, ok := r.byName[name]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	return tpl, nil
}

func (r *fakeTemplateRepo) List(_ context.Context, _, _ int) ([]domain.Template, int, error) {
	out := make([]domain.Template, 0, len(r.byID))
	for _, tpl := range r.byID {
		out = append(out, *tpl)
	}
	return out, len(out), nil
}

func (r *fakeTemplateRepo) Delete(_ context.Context, id uuid.UUID) error {
	tpl, ok := r.byID[id]
	if !ok {
		return domain.ErrTemplateNotFound
	}
	delete(r.byName, tpl.Name)
	delete(r.byID, id)
	return nil
}

type fakeKeyRepo struct {
	byID map[uuid.UUID]*domain.AnswerKey
}

func newFakeKeyRepo() *fakeKeyRepo {
	return &fakeKeyRepo{byID: map[uuid.UUID]*domain.AnswerKey{}}
}

func (r *fakeKeyRepo) Create(_ context.Context, key *domain.AnswerKey) error {
	r.byID[key.ID] = key
	return nil
}

func (r *fakeKeyRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.AnswerKey, error) {
	key, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAnswerKeyNotFound
	}
	return key, nil
}

func (r *fakeKeyRepo) List(_ context.Context, _, _ int) ([]domain.AnswerKey, int, error) {
	out := make([]domain.AnswerKey, 0, len(r.byID))
	for _, key := range r.byID {
		out = append(out, *key)
	}
	return out, len(out), nil
}

func (r *fakeKeyRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.byID, id)
	return nil
}

type fakeSheetRepo struct {
	byID    map[uuid.UUID]*domain.Sheet
	created []*domain.Sheet
}

func newFakeSheetRepo() *fakeSheetRepo {
	return &fakeSheetRepo{byID: map[uuid.UUID]*domain.Sheet{}}
}

func (r *fakeSheetRepo) Create(_ context.Context, sheet *domain.Sheet) error {
	r.byID[sheet.ID] = sheet
	r.created = append(r.created, sheet)
	return nil
}

func (r *fakeSheetRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Sheet, error) {
	sheet, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSheetNotFound
	}
	return sheet, nil
}

func (r *fakeSheetRepo) List(_ context.Context, _, _ int) ([]domain.Sheet, int, error) {
	out := make([]domain.Sheet, 0, len(r.byID))
	for _, sheet := range r.byID {
		out = append(out, *sheet)
	}
	return out, len(out), nil
}

func (r *fakeSheetRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrSheetNotFound
	}
	delete(r.byID, id)
	return nil
}

type fakeStorage struct {
	uploads []port.UploadInput
	deleted []string
}

func (s *fakeStorage) Upload(_ context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	if input.Body != nil {
		io.Copy(io.Discard, input.Body)
	}
	s.uploads = append(s.uploads, input)
	return &port.UploadOutput{Location: "s3://" + input.Bucket + "/" + input.Key}, nil
}

func (s *fakeStorage) Delete(_ context.Context, _, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStorage) GetPresignedURL(_ context.Context, _, key string, _ int64) (string, error) {
	return "https://signed.example/" + key, nil
}

// scriptedVision replies based on prompt content, so one fake covers the full
// sheet, range, and identity variants.
type scriptedVision struct {
	byMarker map[string]string
	err      error
	calls    int
}

func (v *scriptedVision) Generate(_ context.Context, prompt string, _ []byte, _ string) (string, error) {
	v.calls++
	if v.err != nil {
		return "", v.err
	}
	for marker, reply := range v.byMarker {
		if strings.Contains(prompt, marker) {
			return reply, nil
		}
	}
	return "", fmt.Errorf("no scripted reply for prompt %q", prompt[:40])
}

func newSheetFixture(t *testing.T, vision *scriptedVision) (service.SheetService, *fakeSheetRepo, *fakeTemplateRepo, *fakeKeyRepo, *fakeStorage) {
	t.Helper()
	sheets := newFakeSheetRepo()
	templates := newFakeTemplateRepo()
	keys := newFakeKeyRepo()
	storage := &fakeStorage{}
	proc := omr.NewProcessor(vision)
	svc := service.NewSheetService(sheets, templates, keys, storage, proc, omr.NewAggregator(proc, 3),
		&config.S3Config{Bucket: "omr-test", MaxFileSizeMB: 5, PresignExpiry: 900})
	return svc, sheets, templates, keys, storage
}

func seedTemplate(t *testing.T, templates *fakeTemplateRepo, key map[string]string) uuid.UUID {
	t.Helper()
	raw, err := json.Marshal(key)
	require.NoError(t, err)
	tpl := &domain.Template{
		ID:             uuid.New(),
		Name:           "unit 5 exam",
		TotalQuestions: len(key),
		AnswerKey:      raw,
	}
	require.NoError(t, templates.Create(context.Background(), tpl))
	return tpl.ID
}

func seedAnswerKey(t *testing.T, keys *fakeKeyRepo, key map[string]string) uuid.UUID {
	t.Helper()
	raw, err := json.Marshal(key)
	require.NoError(t, err)
	stored := &domain.AnswerKey{
		ID:        uuid.New(),
		Name:      "weekly test key",
		AnswerKey: raw,
	}
	require.NoError(t, keys.Create(context.Background(), stored))
	return stored.ID
}

func TestProcessFull_ScoresAndPersists(t *testing.T) {
	vision := &scriptedVision{byMarker: map[string]string{
		"Student/Exam details": `{"student_name":"Asha Rao","roll_number":"17","responses":{"1":"A","2":"b","3":""}}`,
	}}
	svc, sheets, templates, _, storage := newSheetFixture(t, vision)
	tplID := seedTemplate(t, templates, map[string]string{"1": "A", "2": "B", "3": "C", "4": "D"})

	sheet, err := svc.ProcessFull(context.Background(), service.ProcessFullInput{
		TemplateID: tplID,
		Image:      testPNG(t),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, sheet.CorrectCount)
	assert.Equal(t, 0, sheet.WrongCount)
	assert.Equal(t, 2, sheet.UnansweredCount)
	assert.Equal(t, 4, sheet.TotalQuestions)
	assert.Equal(t, "50.00%", sheet.Percentage)
	require.NotNil(t, sheet.StudentName)
	assert.Equal(t, "Asha Rao", *sheet.StudentName)
	assert.Nil(t, sheet.ExamDate)

	require.Len(t, sheets.created, 1)
	require.Len(t, storage.uploads, 1)
	assert.Equal(t, "omr-test", storage.uploads[0].Bucket)
	assert.True(t, strings.HasPrefix(storage.uploads[0].Key, "sheets/"))
	assert.True(t, strings.HasPrefix(sheet.ImageURL, "https://signed.example/sheets/"))
}

func TestProcessFull_ExplicitIdentityWins(t *testing.T) {
	vision := &scriptedVision{byMarker: map[string]string{
		"Student/Exam details": `{"student_name":"Extracted Name","responses":{"1":"A"}}`,
	}}
	svc, _, templates, _, _ := newSheetFixture(t, vision)
	tplID := seedTemplate(t, templates, map[string]string{"1": "A"})

	name := "  Priya K  "
	sheet, err := svc.ProcessFull(context.Background(), service.ProcessFullInput{
		TemplateID: tplID,
		Image:      testPNG(t),
		Identity:   service.SheetIdentityInput{StudentName: &name},
	})
	require.NoError(t, err)
	require.NotNil(t, sheet.StudentName)
	assert.Equal(t, "Priya K", *sheet.StudentName)
}

func TestProcessFull_ValidationErrors(t *testing.T) {
	svc, _, templates, _, _ := newSheetFixture(t, &scriptedVision{})
	tplID := seedTemplate(t, templates, map[string]string{"1": "A"})

	_, err := svc.ProcessFull(context.Background(), service.ProcessFullInput{TemplateID: tplID})
	assert.ErrorIs(t, err, domain.ErrEmptyUpload)

	_, err = svc.ProcessFull(context.Background(), service.ProcessFullInput{
		TemplateID: tplID,
		Image:      []byte("plain text, not an image"),
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	big := make([]byte, 6*1024*1024)
	copy(big, testPNG(t))
	_, err = svc.ProcessFull(context.Background(), service.ProcessFullInput{TemplateID: tplID, Image: big})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestProcessFull_UnknownTemplate(t *testing.T) {
	svc, _, _, _, _ := newSheetFixture(t, &scriptedVision{})
	_, err := svc.ProcessFull(context.Background(), service.ProcessFullInput{
		TemplateID: uuid.New(),
		Image:      testPNG(t),
	})
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestProcessFull_VisionUnavailable(t *testing.T) {
	vision := &scriptedVision{err: fmt.Errorf("%w: 503 from upstream", port.ErrVisionUnavailable)}
	svc, sheets, templates, _, _ := newSheetFixture(t, vision)
	tplID := seedTemplate(t, templates, map[string]string{"1": "A"})

	_, err := svc.ProcessFull(context.Background(), service.ProcessFullInput{TemplateID: tplID, Image: testPNG(t)})
	assert.ErrorIs(t, err, port.ErrVisionUnavailable)
	assert.Empty(t, sheets.created)
}

func TestProcessFullByAnswerKey_MirrorsTemplateOnce(t *testing.T) {
	vision := &scriptedVision{byMarker: map[string]string{
		"Student/Exam details": `{"responses":{"1":"C"}}`,
	}}
	svc, _, templates, keys, _ := newSheetFixture(t, vision)
	keyID := seedAnswerKey(t, keys, map[string]string{"1": "C"})

	first, err := svc.ProcessFullByAnswerKey(context.Background(), service.ProcessFullByKeyInput{
		AnswerKeyID: keyID,
		Image:       testPNG(t),
	})
	require.NoError(t, err)
	second, err := svc.ProcessFullByAnswerKey(context.Background(), service.ProcessFullByKeyInput{
		AnswerKeyID: keyID,
		Image:       testPNG(t),
	})
	require.NoError(t, err)

	assert.Equal(t, first.TemplateID, second.TemplateID)
	assert.Len(t, templates.byID, 1)
	mirrored, err := templates.GetByID(context.Background(), first.TemplateID)
	require.NoError(t, err)
	assert.Contains(t, mirrored.Name, "AK ")
	assert.Contains(t, mirrored.Name, "weekly test key")
}

func TestProcessCropped_UsesFullKeySpan(t *testing.T) {
	vision := &scriptedVision{byMarker: map[string]string{
		"questions 1 through 3": `{"responses":{"1":"A","2":"B","3":"D"}}`,
	}}
	svc, _, _, keys, storage := newSheetFixture(t, vision)
	keyID := seedAnswerKey(t, keys, map[string]string{"1": "A", "2": "B", "3": "C"})

	sheet, err := svc.ProcessCropped(context.Background(), service.ProcessCroppedInput{
		AnswerKeyID: keyID,
		Image:       testPNG(t),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, sheet.CorrectCount)
	assert.Equal(t, 1, sheet.WrongCount)
	assert.Equal(t, 0, sheet.UnansweredCount)
	require.Len(t, storage.uploads, 1)
	assert.True(t, strings.HasPrefix(storage.uploads[0].Key, "crops/"))
}

func multiCropVision() *scriptedVision {
	byMarker := map[string]string{}
	for i := 0; i < 5; i++ {
		start, end := i*10+1, i*10+10
		responses := map[string]string{}
		for q := start; q <= end; q++ {
			responses[fmt.Sprintf("%d", q)] = "A"
		}
		encoded, _ := json.Marshal(map[string]any{"responses": responses})
		byMarker[fmt.Sprintf("questions %d through %d", start, end)] = string(encoded)
	}
	return &scriptedVision{byMarker: byMarker}
}

func fiftyQuestionKey() map[string]string {
	key := map[string]string{}
	for q := 1; q <= 50; q++ {
		key[fmt.Sprintf("%d", q)] = "A"
	}
	return key
}

func TestProcessMultiCrop_MergesAllRegions(t *testing.T) {
	svc, _, _, keys, _ := newSheetFixture(t, multiCropVision())
	keyID := seedAnswerKey(t, keys, fiftyQuestionKey())

	crops := make([][]byte, 5)
	for i := range crops {
		crops[i] = testPNG(t)
	}
	sheet, err := svc.ProcessMultiCrop(context.Background(), service.ProcessMultiCropInput{
		AnswerKeyID: keyID,
		Crops:       crops,
	})
	require.NoError(t, err)

	assert.Equal(t, 50, sheet.CorrectCount)
	assert.Equal(t, 50, sheet.TotalQuestions)
	assert.Equal(t, "100.00%", sheet.Percentage)

	var details map[string]any
	require.NoError(t, json.Unmarshal(sheet.OtherDetails, &details))
	assert.NotContains(t, details, "processing_errors")
}

func TestProcessMultiCrop_RegionFailureIsPartial(t *testing.T) {
	vision := multiCropVision()
	vision.byMarker["questions 21 through 30"] = "the image is too blurry to read"

	svc, sheets, _, keys, _ := newSheetFixture(t, vision)
	keyID := seedAnswerKey(t, keys, fiftyQuestionKey())

	crops := make([][]byte, 5)
	for i := range crops {
		crops[i] = testPNG(t)
	}
	sheet, err := svc.ProcessMultiCrop(context.Background(), service.ProcessMultiCropInput{
		AnswerKeyID: keyID,
		Crops:       crops,
	})
	require.NoError(t, err)

	assert.Equal(t, 40, sheet.CorrectCount)
	assert.Equal(t, 10, sheet.UnansweredCount)
	require.Len(t, sheets.created, 1)

	var details map[string]any
	require.NoError(t, json.Unmarshal(sheet.OtherDetails, &details))
	procErrs, ok := details["processing_errors"].([]any)
	require.True(t, ok)
	require.Len(t, procErrs, 1)
	assert.Contains(t, procErrs[0], "21-30")
}

func TestProcessMultiCrop_WrongCropCount(t *testing.T) {
	svc, _, _, keys, _ := newSheetFixture(t, multiCropVision())
	keyID := seedAnswerKey(t, keys, fiftyQuestionKey())

	_, err := svc.ProcessMultiCrop(context.Background(), service.ProcessMultiCropInput{
		AnswerKeyID: keyID,
		Crops:       [][]byte{testPNG(t), testPNG(t), testPNG(t)},
	})
	assert.ErrorIs(t, err, domain.ErrWrongCropCount)
}

func TestExtractIdentity_EmptyFieldsBecomeAbsent(t *testing.T) {
	vision := &scriptedVision{byMarker: map[string]string{
		"Extract ONLY the student's name": `{"student_name":"Ravi","roll_number":"","exam_date":null}`,
	}}
	svc, _, _, _, storage := newSheetFixture(t, vision)

	result, err := svc.ExtractIdentity(context.Background(), service.ExtractIdentityInput{Image: testPNG(t)})
	require.NoError(t, err)

	require.NotNil(t, result.StudentName)
	assert.Equal(t, "Ravi", *result.StudentName)
	assert.Nil(t, result.RollNumber)
	assert.Nil(t, result.ExamDate)
	require.Len(t, storage.uploads, 1)
	assert.True(t, strings.HasPrefix(storage.uploads[0].Key, "identity/"))
}

func TestDelete_RemovesStoredImage(t *testing.T) {
	vision := &scriptedVision{byMarker: map[string]string{
		"Student/Exam details": `{"responses":{"1":"A"}}`,
	}}
	svc, _, templates, _, storage := newSheetFixture(t, vision)
	tplID := seedTemplate(t, templates, map[string]string{"1": "A"})

	sheet, err := svc.ProcessFull(context.Background(), service.ProcessFullInput{TemplateID: tplID, Image: testPNG(t)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), sheet.ID))
	require.Len(t, storage.deleted, 1)
	assert.Equal(t, sheet.ImageKey, storage.deleted[0])

	err = svc.Delete(context.Background(), sheet.ID)
	assert.True(t, errors.Is(err, domain.ErrSheetNotFound))
}
