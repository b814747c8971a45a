package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrTemplateNotFound    = errors.New("template not found")
	ErrAnswerKeyNotFound   = errors.New("answer key not found")
	ErrSheetNotFound       = errors.New("sheet not found")
	ErrEmptyUpload         = errors.New("uploaded file is empty")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrInvalidCropRegion   = errors.New("crop coordinates must lie within [0,1]")
	ErrInvalidAnswerKey    = errors.New("answer key payload is malformed")
	ErrWrongCropCount      = errors.New("multi-crop processing expects exactly 5 files")
	ErrExtractionFailed    = errors.New("could not extract structured data from image")
	ErrUploadFailed        = errors.New("file upload to storage failed")
)
