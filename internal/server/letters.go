package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/cover-letter/internal/db"
	"github.com/jonathan/cover-letter/internal/ingestion"
	"github.com/jonathan/cover-letter/internal/pipeline"
	"github.com/jonathan/cover-letter/internal/server/middleware"
	"github.com/jonathan/cover-letter/internal/types"
)

// resumeFormField is the multipart field holding the uploaded PDF.
const resumeFormField = "resume"

// handleUploadResume extracts text from an uploaded PDF and stores it as
// the user's resume.
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, ingestion.MaxResumeBytes+1<<20)
	file, header, err := r.FormFile(resumeFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, s.logger, err)
			return
		}
		writeError(w, s.logger, &ErrValidation{Field: resumeFormField, Message: "no PDF file uploaded"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, s.logger, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	resume, err := ingestion.ExtractResume(data)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	record := &db.Resume{
		UserID:   userID,
		Filename: header.Filename,
		Text:     resume.Text,
		Pages:    resume.Pages,
	}
	if err := s.store.SaveResume(r.Context(), record); err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.logger.Info("resume uploaded", "user_id", userID, "pages", resume.Pages, "characters", resume.Characters)
	writeJSON(w, s.logger, http.StatusOK, types.UploadResumeResponse{
		Success:    true,
		Filename:   header.Filename,
		Characters: resume.Characters,
	})
}

// handleResumeStatus reports whether the user has a stored resume.
func (s *Server) handleResumeStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	resume, err := s.store.GetResume(r.Context(), userID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if resume == nil {
		writeJSON(w, s.logger, http.StatusOK, types.ResumeStatusResponse{HasResume: false})
		return
	}

	uploaded := resume.UploadedAt
	writeJSON(w, s.logger, http.StatusOK, types.ResumeStatusResponse{
		HasResume:  true,
		Filename:   resume.Filename,
		UploadedAt: &uploaded,
	})
}

// handleGenerate writes a cover letter for the posted job text against the
// user's stored resume and saves it.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req types.GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	jobText, jobMeta := ingestion.PrepareJobText(req.JobText, "request")
	if jobText == "" {
		writeError(w, s.logger, pipeline.ErrMissingJobText)
		return
	}

	resume, err := s.store.GetResume(r.Context(), userID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if resume == nil {
		writeError(w, s.logger, &ErrResumeNotFound{})
		return
	}

	result, err := s.generator.Generate(r.Context(), pipeline.GenerateInput{
		JobText:      jobText,
		ResumeText:   resume.Text,
		TemplateType: req.TemplateType,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrMissingJobText) || errors.Is(err, pipeline.ErrMissingResumeText) {
			writeError(w, s.logger, err)
			return
		}
		writeError(w, s.logger, &ErrGeneration{Cause: err})
		return
	}

	templateType := req.TemplateType
	if templateType == "" {
		templateType = types.TemplateDefault
	}
	record := &db.CoverLetter{
		UserID:        userID,
		TemplateType:  templateType,
		JobText:       jobText,
		JobHash:       jobMeta.Hash,
		Body:          result.Letter,
		CandidateName: result.Metadata.CandidateName,
		Company:       result.Metadata.Company,
		Position:      result.Metadata.Position,
	}
	if err := s.store.SaveCoverLetter(r.Context(), record); err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.logger.Info("cover letter generated",
		"user_id", userID,
		"letter_id", record.ID,
		"template", templateType,
		"job_truncated", jobMeta.Truncated,
		"metadata_fallback", result.MetadataErr != nil)

	writeJSON(w, s.logger, http.StatusOK, types.GenerateResponse{
		Success:     true,
		CoverLetter: result.Letter,
		Metadata:    result.Metadata,
		ID:          record.ID,
	})
}

// renderHandler returns a handler that renders posted letter text in one
// format and sends it as an attachment.
func (s *Server) renderHandler(format pipeline.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.requireUser(w, r); !ok {
			return
		}

		var req types.RenderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, s.logger, err)
			return
		}

		meta := types.DefaultMetadata()
		if req.Metadata != nil {
			meta = req.Metadata.WithDefaults()
		}

		result, err := pipeline.RenderAll(r.Context(), req.CoverLetter, meta, []pipeline.Format{format}, pipeline.RenderOptions{
			Created: s.now(),
			Logger:  s.logger,
		})
		if err != nil {
			writeError(w, s.logger, err)
			return
		}

		doc := result.Documents[0]
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
		w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(doc.Data); err != nil {
			s.logger.Warn("failed to write document", "format", format, "error", err)
		}
	}
}

// handleListLetters lists the user's stored letters, newest first.
func (s *Server) handleListLetters(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, s.logger, &ErrValidation{Field: "limit", Message: "must be a positive integer"})
			return
		}
		limit = n
	}

	letters, err := s.store.ListCoverLetters(r.Context(), userID, limit)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	summaries := make([]types.LetterSummary, 0, len(letters))
	for _, l := range letters {
		summaries = append(summaries, types.LetterSummary{
			ID:           l.ID,
			TemplateType: l.TemplateType,
			Metadata:     letterMetadata(&l),
			CreatedAt:    l.CreatedAt,
		})
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"letters": summaries,
		"count":   len(summaries),
	})
}

// handleGetLetter returns one stored letter.
func (s *Server) handleGetLetter(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	letterID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, &ErrValidation{Field: "id", Message: "invalid letter ID"})
		return
	}

	l, err := s.store.GetCoverLetter(r.Context(), userID, letterID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if l == nil {
		writeError(w, s.logger, &ErrLetterNotFound{LetterID: letterID})
		return
	}

	writeJSON(w, s.logger, http.StatusOK, types.GenerateResponse{
		Success:     true,
		CoverLetter: l.Body,
		Metadata:    letterMetadata(l),
		ID:          l.ID,
	})
}

func letterMetadata(l *db.CoverLetter) types.LetterMetadata {
	return types.LetterMetadata{
		CandidateName: l.CandidateName,
		Company:       l.Company,
		Position:      l.Position,
	}.WithDefaults()
}

// requireUser reads the authenticated user set by the auth middleware.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		writeJSON(w, s.logger, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return uuid.Nil, false
	}
	return userID, true
}
