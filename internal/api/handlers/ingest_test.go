package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdocs/askdocs/internal/document"
	"github.com/askdocs/askdocs/internal/llm"
	"github.com/askdocs/askdocs/internal/rag"
	"github.com/askdocs/askdocs/internal/stt"
)

// cannedGateway answers every chat with a fixed reply; only the summarizer
// path reaches it.
type cannedGateway struct {
	reply string
	calls int
}

func (g *cannedGateway) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	g.calls++
	return &llm.ChatResponse{Content: g.reply}, nil
}

func (g *cannedGateway) Embed(ctx context.Context, req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error) {
	return nil, errors.New("not used")
}

func (g *cannedGateway) Provider(name string) (llm.Provider, error) {
	return nil, errors.New("not used")
}

func (g *cannedGateway) ListModels() []llm.ModelInfo { return nil }

type cannedSTT struct {
	text string
	err  error
}

func (p *cannedSTT) Transcribe(ctx context.Context, req stt.TranscriptionRequest) (*stt.TranscriptionResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &stt.TranscriptionResponse{Text: p.text}, nil
}

func (p *cannedSTT) Name() string { return "canned" }

func newIngestHandler(p rag.Pipeline, provider stt.STTProvider, gw llm.Gateway) *IngestHandler {
	if gw == nil {
		gw = &cannedGateway{}
	}
	transcriber := stt.NewService(func() (stt.STTProvider, error) {
		if provider == nil {
			return nil, errors.New("no transcriber configured")
		}
		return provider, nil
	})
	return NewIngestHandler(p, document.NewExtractor(), transcriber, rag.NewSummarizer(gw, "", ""))
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadDocumentTXT(t *testing.T) {
	p := &fakePipeline{ingestCount: 3}
	h := newIngestHandler(p, nil, nil)

	body, contentType := multipartUpload(t, "notes.txt", []byte("some document text"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/pdf", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.UploadDocument(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "notes.txt", resp["filename"])
	assert.Equal(t, float64(3), resp["chunks_processed"])

	assert.Equal(t, "notes.txt", p.lastIngest.Source)
	assert.Equal(t, []string{"some document text"}, p.lastIngest.Texts)
}

func TestUploadDocumentRejectsUnsupportedType(t *testing.T) {
	h := newIngestHandler(&fakePipeline{}, nil, nil)

	body, contentType := multipartUpload(t, "image.png", []byte{0x89}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/pdf", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.UploadDocument(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "invalid file type")
}

func TestUploadDocumentRequiresFile(t *testing.T) {
	h := newIngestHandler(&fakePipeline{}, nil, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("unrelated", "field"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/pdf", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.UploadDocument(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadDocumentPipelineErrorMapped(t *testing.T) {
	p := &fakePipeline{ingestErr: &rag.Error{Kind: rag.KindValidation, Err: errors.New("no chunks generated")}}
	h := newIngestHandler(p, nil, nil)

	body, contentType := multipartUpload(t, "empty.txt", []byte("   "), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/pdf", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.UploadDocument(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadMediaTranscribesAndIngests(t *testing.T) {
	p := &fakePipeline{ingestCount: 2}
	h := newIngestHandler(p, &cannedSTT{text: "spoken words"}, nil)

	body, contentType := multipartUpload(t, "talk.mp3", []byte("fake audio"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/media", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.UploadMedia(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "talk.mp3", p.lastIngest.Source)
	assert.Equal(t, []string{"spoken words"}, p.lastIngest.Texts)
}

func TestUploadMediaRefinesTranscript(t *testing.T) {
	p := &fakePipeline{ingestCount: 1}
	gw := &cannedGateway{reply: "refined transcript"}
	h := newIngestHandler(p, &cannedSTT{text: "raw transcript"}, gw)

	body, contentType := multipartUpload(t, "talk.wav", []byte("fake audio"), map[string]string{"refine": "true"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/media", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.UploadMedia(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, gw.calls)
	assert.Equal(t, []string{"refined transcript"}, p.lastIngest.Texts)
}

func TestUploadMediaRejectsUnsupportedType(t *testing.T) {
	h := newIngestHandler(&fakePipeline{}, &cannedSTT{}, nil)

	body, contentType := multipartUpload(t, "doc.pdf", []byte("pdf"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/media", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.UploadMedia(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], ".flac, .m4a, .mp3, .mp4, .ogg, .wav")
}

func TestUploadMediaTranscriptionFailure(t *testing.T) {
	h := newIngestHandler(&fakePipeline{}, &cannedSTT{err: errors.New("whisper unreachable")}, nil)

	body, contentType := multipartUpload(t, "talk.ogg", []byte("fake audio"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/media", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.UploadMedia(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "whisper unreachable")
}
