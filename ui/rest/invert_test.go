package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domainInvert "github.com/AzielCF/az-invert/domains/invert"
	"github.com/AzielCF/az-invert/infrastructure/artifactstore"
	pkgError "github.com/AzielCF/az-invert/pkg/error"
	"github.com/AzielCF/az-invert/pkg/hash"
	"github.com/AzielCF/az-invert/pkg/imgproc"
	"github.com/AzielCF/az-invert/usecase"
	"github.com/AzielCF/az-invert/views"
	"github.com/PuerkitoBio/goquery"
	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Code    string                      `json:"code"`
	Message string                      `json:"message"`
	Results domainInvert.InvertResponse `json:"results"`
}

func newTestApp(t *testing.T, basePath string, bodyLimit int) *fiber.App {
	t.Helper()
	store, err := artifactstore.NewFSStore(afero.NewMemMapFs(), "uploads")
	require.NoError(t, err)

	hasher, err := hash.New(hash.AlgorithmMD5)
	require.NoError(t, err)

	cacheUsecase := usecase.NewCacheService(store, 24*time.Hour, "fs")
	invertUsecase := usecase.NewInvertService(store, cacheUsecase, usecase.InvertOptions{
		Policy:   imgproc.PolicyThreshold,
		Hasher:   hasher,
		BasePath: basePath,
	})

	healthUsecase := usecase.NewHealthService(store, "fs")

	return NewApp(AppConfig{Name: "test", BasePath: basePath, BodyLimit: bodyLimit}, invertUsecase, cacheUsecase, healthUsecase)
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(2, 2, color.Black), imaging.PNG))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, target, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" || data != nil {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func parsePage(t *testing.T, resp *http.Response) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

func decodeAPI(t *testing.T, resp *http.Response) apiResponse {
	t.Helper()
	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestForm_Get(t *testing.T) {
	app := newTestApp(t, "", 1<<20)

	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := parsePage(t, resp)
	form := doc.Find("form")
	assert.Equal(t, "multipart/form-data", form.AttrOr("enctype", ""))
	assert.Equal(t, "/", form.AttrOr("action", ""))
	assert.Equal(t, 1, form.Find(`input[type="file"][name="file"]`).Length())
	assert.Equal(t, 0, doc.Find("#error").Length())
}

func TestForm_UploadShowsBothImages(t *testing.T) {
	app := newTestApp(t, "", 1<<20)

	resp := doRequest(t, app, uploadRequest(t, "/", "My Photo.PNG", samplePNG(t)))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := parsePage(t, resp)
	assert.Equal(t, "/uploads/My_Photo.png", doc.Find("#original_image").AttrOr("src", ""))

	processed := doc.Find("#processed_image").AttrOr("src", "")
	assert.True(t, strings.HasPrefix(processed, "/uploads/inverted_"), processed)
	assert.True(t, strings.HasSuffix(processed, ".png"), processed)

	img := doRequest(t, app, httptest.NewRequest(http.MethodGet, processed, nil))
	assert.Equal(t, http.StatusOK, img.StatusCode)
	assert.Equal(t, "image/png", img.Header.Get(fiber.HeaderContentType))
}

func TestForm_InlineErrors(t *testing.T) {
	app := newTestApp(t, "", 1<<20)

	cases := []struct {
		name     string
		filename string
		data     []byte
		want     string
	}{
		{"no file part", "", nil, "No file part"},
		{"bad extension", "notes.txt", []byte("hello"), "Invalid image type"},
		{"not an image", "fake.png", []byte("hello"), "not a valid image"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doRequest(t, app, uploadRequest(t, "/", tc.filename, tc.data))
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			doc := parsePage(t, resp)
			assert.Contains(t, doc.Find("#error").Text(), tc.want)
			assert.Equal(t, 0, doc.Find("#processed_image").Length())
		})
	}
}

type brokenInvert struct{}

func (brokenInvert) Process(context.Context, domainInvert.InvertRequest) (domainInvert.InvertResponse, error) {
	return domainInvert.InvertResponse{}, pkgError.InternalServerError("disk full")
}

func (brokenInvert) Open(context.Context, string) (domainInvert.StoredFile, error) {
	return domainInvert.StoredFile{}, pkgError.InternalServerError("disk full")
}

func TestForm_StorageFailureIs500(t *testing.T) {
	app := fiber.New(fiber.Config{Views: views.NewEngine(false)})
	InitRestInvert(app, brokenInvert{}, "")

	resp := doRequest(t, app, uploadRequest(t, "/", "a.png", samplePNG(t)))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	doc := parsePage(t, resp)
	assert.Equal(t, genericErrorMsg, strings.TrimSpace(doc.Find("#error").Text()))
}

func TestAPI_InvertIsCached(t *testing.T) {
	app := newTestApp(t, "", 1<<20)
	data := samplePNG(t)

	first := decodeAPI(t, doRequest(t, app, uploadRequest(t, "/api/invert", "a.png", data)))
	assert.Equal(t, "SUCCESS", first.Code)
	assert.False(t, first.Results.CacheHit)
	assert.Equal(t, "a.png", first.Results.OriginalFile)

	second := decodeAPI(t, doRequest(t, app, uploadRequest(t, "/api/invert", "a.png", data)))
	assert.True(t, second.Results.CacheHit)
	assert.Equal(t, "a_1.png", second.Results.OriginalFile)
	assert.Equal(t, first.Results.ProcessedFile, second.Results.ProcessedFile)
	assert.Equal(t, first.Results.Hash, second.Results.Hash)
}

func TestAPI_InvertErrors(t *testing.T) {
	app := newTestApp(t, "", 1<<20)

	cases := []struct {
		filename string
		data     []byte
		status   int
		code     string
	}{
		{"notes.txt", []byte("hello"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"fake.gif", []byte("GIF89a broken"), http.StatusUnprocessableEntity, "DECODE_ERROR"},
	}
	for _, tc := range cases {
		resp := doRequest(t, app, uploadRequest(t, "/api/invert", tc.filename, tc.data))
		assert.Equal(t, tc.status, resp.StatusCode, tc.filename)
		assert.Equal(t, tc.code, decodeAPI(t, resp).Code, tc.filename)
	}
}

// The limit is enforced by fasthttp while reading the request, before any
// handler runs, so it is exercised through a real listener.
func TestAPI_BodyLimit(t *testing.T) {
	app := newTestApp(t, "", 1024)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	req := uploadRequest(t, "http://"+ln.Addr().String()+"/api/invert", "big.png", make([]byte, 4096))
	req.RequestURI = ""
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	small := uploadRequest(t, "http://"+ln.Addr().String()+"/api/invert", "a.png", samplePNG(t))
	small.RequestURI = ""
	resp2, err := http.DefaultClient.Do(small)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestUploads_ConditionalGet(t *testing.T) {
	app := newTestApp(t, "", 1<<20)
	result := decodeAPI(t, doRequest(t, app, uploadRequest(t, "/api/invert", "a.png", samplePNG(t)))).Results

	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, result.OriginalURL, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, samplePNG(t), body)

	lastModified := resp.Header.Get(fiber.HeaderLastModified)
	require.NotEmpty(t, lastModified)

	req := httptest.NewRequest(http.MethodGet, result.OriginalURL, nil)
	req.Header.Set(fiber.HeaderIfModifiedSince, lastModified)
	assert.Equal(t, http.StatusNotModified, doRequest(t, app, req).StatusCode)

	req = httptest.NewRequest(http.MethodGet, result.OriginalURL, nil)
	req.Header.Set(fiber.HeaderIfModifiedSince, "Mon, 01 Jan 2001 00:00:00 GMT")
	assert.Equal(t, http.StatusOK, doRequest(t, app, req).StatusCode)
}

func TestUploads_NotFound(t *testing.T) {
	app := newTestApp(t, "", 1<<20)

	for _, target := range []string{"/uploads/missing.png", "/uploads/..%2F..%2Fetc%2Fpasswd"} {
		resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, target)
	}
}

func TestBasePath(t *testing.T) {
	app := newTestApp(t, "/invert", 1<<20)

	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/invert/", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/invert/", parsePage(t, resp).Find("form").AttrOr("action", ""))

	result := decodeAPI(t, doRequest(t, app, uploadRequest(t, "/invert/api/invert", "a.png", samplePNG(t)))).Results
	assert.Equal(t, "/invert/uploads/a.png", result.OriginalURL)

	img := doRequest(t, app, httptest.NewRequest(http.MethodGet, result.ProcessedURL, nil))
	assert.Equal(t, http.StatusOK, img.StatusCode)
}

func TestCacheEndpoints(t *testing.T) {
	app := newTestApp(t, "", 1<<20)
	doRequest(t, app, uploadRequest(t, "/api/invert", "a.png", samplePNG(t)))

	var stats struct {
		Results struct {
			Originals int `json:"originals"`
			Artifacts int `json:"artifacts"`
		} `json:"results"`
	}
	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.Results.Originals)
	assert.Equal(t, 1, stats.Results.Artifacts)

	resp = doRequest(t, app, httptest.NewRequest(http.MethodPost, "/api/cache/sweep", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, httptest.NewRequest(http.MethodPost, "/api/cache/clear", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, httptest.NewRequest(http.MethodPost, "/api/health/check", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
