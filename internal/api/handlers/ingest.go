package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/askdocs/askdocs/internal/document"
	"github.com/askdocs/askdocs/internal/rag"
	"github.com/askdocs/askdocs/internal/stt"
)

var mediaExtensions = map[string]bool{
	".wav": true, ".mp3": true, ".mp4": true, ".m4a": true, ".flac": true, ".ogg": true,
}

type IngestHandler struct {
	pipeline    rag.Pipeline
	extractor   *document.Extractor
	transcriber *stt.Service
	summarizer  *rag.Summarizer
}

func NewIngestHandler(p rag.Pipeline, ex *document.Extractor, tr *stt.Service, sum *rag.Summarizer) *IngestHandler {
	return &IngestHandler{pipeline: p, extractor: ex, transcriber: tr, summarizer: sum}
}

// UploadDocument ingests a PDF (or plain-text) file: extract pages, chunk,
// embed, store. The upload is staged in a temp file that is removed
// regardless of outcome.
func (h *IngestHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	file, header, ok := formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" && ext != ".txt" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid file type: only PDF and plain-text files are allowed",
		})
		return
	}

	tmpPath, err := saveUpload(file, ext)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store upload: " + err.Error()})
		return
	}
	defer os.Remove(tmpPath)

	pages, err := h.extractor.ExtractPages(tmpPath)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "extract text: " + err.Error()})
		return
	}

	count, err := h.pipeline.Ingest(r.Context(), rag.IngestRequest{
		Source: filepath.Base(header.Filename),
		Texts:  pages,
	})
	if err != nil {
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"filename":         filepath.Base(header.Filename),
		"chunks_processed": count,
	})
}

// UploadMedia ingests an audio/video file: transcribe, optionally refine
// the transcript, then chunk, embed, store.
func (h *IngestHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	file, header, ok := formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !mediaExtensions[ext] {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("invalid file type: allowed formats: %s", strings.Join(mediaExtensionList(), ", ")),
		})
		return
	}

	tmpPath, err := saveUpload(file, ext)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store upload: " + err.Error()})
		return
	}
	defer os.Remove(tmpPath)

	transcript, err := h.transcriber.Transcribe(r.Context(), tmpPath)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "transcribe audio: " + err.Error()})
		return
	}

	if r.FormValue("refine") == "true" {
		refined, err := h.summarizer.Summarize(r.Context(), transcript)
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "refine transcript: " + err.Error()})
			return
		}
		transcript = refined
	}

	count, err := h.pipeline.Ingest(r.Context(), rag.IngestRequest{
		Source: filepath.Base(header.Filename),
		Texts:  []string{transcript},
	})
	if err != nil {
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"filename":         filepath.Base(header.Filename),
		"chunks_processed": count,
	})
}

func formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return nil, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file required"})
		return nil, nil, false
	}
	if header.Filename == "" {
		file.Close()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no file selected"})
		return nil, nil, false
	}
	return file, header, true
}

func saveUpload(file multipart.File, ext string) (string, error) {
	path := filepath.Join(os.TempDir(), uuid.New().String()+ext)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func mediaExtensionList() []string {
	out := make([]string, 0, len(mediaExtensions))
	for ext := range mediaExtensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
