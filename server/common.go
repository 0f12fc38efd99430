package server

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/alan-mat/atscore/internal/store"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const (
	fieldResume      = "resume"
	fieldDescription = "job_description"
)

// fieldErrors maps a form field to its validation messages.
type fieldErrors map[string][]string

func (fe fieldErrors) add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

type upload struct {
	file        *multipart.FileHeader
	description string
}

func parseUpload(c fiber.Ctx) (*upload, fieldErrors) {
	errs := fieldErrors{}

	file, err := c.FormFile(fieldResume)
	if err != nil {
		errs.add(fieldResume, "No file was submitted.")
	} else if strings.ToLower(filepath.Ext(file.Filename)) != ".pdf" {
		errs.add(fieldResume, "Only PDF resumes are allowed.")
	}

	description := c.FormValue(fieldDescription)
	if strings.TrimSpace(description) == "" {
		errs.add(fieldDescription, "This field is required.")
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &upload{file: file, description: description}, nil
}

// saveUpload stores the resume under the upload dir and creates its
// submission record.
func (s *Server) saveUpload(c fiber.Ctx, u *upload) (*store.Submission, error) {
	id := uuid.NewString()
	path := filepath.Join(s.config.UploadDir, fmt.Sprintf("%s-%s", id, filepath.Base(u.file.Filename)))

	if err := c.SaveFile(u.file, path); err != nil {
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	sub := &store.Submission{
		ID:             id,
		ResumePath:     path,
		JobDescription: u.description,
		UploadedAt:     time.Now().UTC(),
	}
	if err := s.store.Create(c.Context(), sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func internalError(c fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "internal server error"})
}
