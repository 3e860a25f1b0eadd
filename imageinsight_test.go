package imageinsight

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/menta2k/image-insight/pkg/analyzer"
	"github.com/menta2k/image-insight/pkg/cropper"
	"github.com/menta2k/image-insight/pkg/orchestrator"
	"github.com/menta2k/image-insight/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Create a pattern with a bright subject in the center
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{240, 200, 40, 255})
			} else {
				img.Set(x, y, color.RGBA{30, 60, 160, 255})
			}
		}
	}

	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}
	return buf.Bytes()
}

type fakeClient struct {
	report *types.ModelReport
	calls  int
}

func (c *fakeClient) Query(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	return "a yellow square on blue", nil
}

func (c *fakeClient) AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.ModelReport, error) {
	c.calls++
	return c.report, nil
}

func TestNew(t *testing.T) {
	insight := New()
	if insight == nil {
		t.Fatal("New() returned nil")
	}

	if insight.analyzer == nil {
		t.Error("analyzer component is nil")
	}

	if insight.orchestrator == nil {
		t.Error("orchestrator component is nil")
	}

	if insight.model != nil {
		t.Error("model should be nil without a client")
	}
}

func TestAnalyzeImage(t *testing.T) {
	insight := New()
	img := createTestImage(400, 300)

	result, err := insight.AnalyzeImage(context.Background(), img)
	if err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}

	if result.Info.Width != 400 || result.Info.Height != 300 {
		t.Errorf("Expected 400x300, got %dx%d", result.Info.Width, result.Info.Height)
	}

	if result.Caption == "" {
		t.Error("Expected a caption")
	}

	if result.Narrative == "" {
		t.Error("Expected a narrative")
	}

	if result.Degraded {
		t.Errorf("Local detectors should produce a full result, warnings: %v", result.Warnings)
	}

	again, err := insight.AnalyzeImage(context.Background(), img)
	if err != nil {
		t.Fatalf("second AnalyzeImage failed: %v", err)
	}
	if again != result {
		t.Error("Expected the cached result on the second call")
	}
	if hits := insight.Stats().Cache.Hits; hits != 1 {
		t.Errorf("Expected 1 cache hit, got %d", hits)
	}
}

func solidImage(width, height int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestFlatColorsGetSeparateResults(t *testing.T) {
	insight := New()

	red, err := insight.AnalyzeImage(context.Background(), solidImage(400, 300, color.RGBA{220, 20, 20, 255}))
	if err != nil {
		t.Fatalf("AnalyzeImage red failed: %v", err)
	}
	blue, err := insight.AnalyzeImage(context.Background(), solidImage(400, 300, color.RGBA{20, 20, 220, 255}))
	if err != nil {
		t.Fatalf("AnalyzeImage blue failed: %v", err)
	}

	if red.CacheKey == blue.CacheKey {
		t.Errorf("Expected distinct cache keys, both got %s", red.CacheKey)
	}
	if !strings.Contains(red.Caption, "red") {
		t.Errorf("Expected the red caption to mention red, got %q", red.Caption)
	}
	if strings.Contains(blue.Caption, "red") {
		t.Errorf("Blue image got the red caption %q", blue.Caption)
	}
}

func TestAnalyzeImageTooSmall(t *testing.T) {
	insight := New()
	_, err := insight.AnalyzeImage(context.Background(), createTestImage(8, 8))
	if !errors.Is(err, analyzer.ErrTooSmall) {
		t.Errorf("Expected ErrTooSmall, got %v", err)
	}
}

func TestAnalyzeBytes(t *testing.T) {
	insight := New()
	data := encodePNG(t, createTestImage(200, 200))

	result, err := insight.AnalyzeBytes(context.Background(), data)
	if err != nil {
		t.Fatalf("AnalyzeBytes failed: %v", err)
	}

	if result.Info.Format != "png" {
		t.Errorf("Expected format png, got %q", result.Info.Format)
	}

	if _, err := insight.AnalyzeBytes(context.Background(), []byte("not an image")); err == nil {
		t.Error("Expected an error for undecodable data")
	}
}

func TestAnalyzeFile(t *testing.T) {
	insight := New()
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(path, encodePNG(t, createTestImage(320, 240)), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := insight.AnalyzeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("AnalyzeFile failed: %v", err)
	}
	if result.Info.Width != 320 {
		t.Errorf("Expected width 320, got %d", result.Info.Width)
	}

	if _, err := insight.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestModelBackend(t *testing.T) {
	fake := &fakeClient{report: &types.ModelReport{
		Classifications: []types.ModelLabel{{Label: "person", Confidence: 0.6}, {Label: "sky", Confidence: 0.5}},
		Objects: []types.ModelObject{
			{Label: "person", Confidence: 0.9, Box: types.Box{X: 0.3, Y: 0.2, W: 0.4, H: 0.7}},
		},
	}}
	config := DefaultConfig()
	config.Client = fake
	insight := NewWithConfig(config)

	result, err := insight.AnalyzeImage(context.Background(), createTestImage(400, 300))
	if err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}

	if fake.calls != 1 {
		t.Errorf("Expected one model call shared by all detectors, got %d", fake.calls)
	}

	if len(result.Subjects) == 0 || result.Subjects[0].Identifier != "person" {
		t.Fatalf("Expected a person subject, got %+v", result.Subjects)
	}

	if !strings.Contains(strings.ToLower(result.Caption), "person") {
		t.Errorf("Expected the caption to mention the person, got %q", result.Caption)
	}

	text, err := insight.Describe(context.Background(), createTestImage(400, 300))
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if text != "a yellow square on blue" {
		t.Errorf("Unexpected description %q", text)
	}
}

func TestDescribeWithoutModel(t *testing.T) {
	_, err := New().Describe(context.Background(), createTestImage(100, 100))
	if !errors.Is(err, orchestrator.ErrDetectorUnavailable) {
		t.Errorf("Expected ErrDetectorUnavailable, got %v", err)
	}
}

func TestInvalidateCache(t *testing.T) {
	insight := New()
	result, err := insight.AnalyzeImage(context.Background(), createTestImage(200, 150))
	if err != nil {
		t.Fatal(err)
	}

	if n := insight.InvalidateCache(result.CacheKey); n != 1 {
		t.Errorf("Expected 1 invalidated entry, got %d", n)
	}
	if n := insight.Stats().Cache.Entries; n != 0 {
		t.Errorf("Expected an empty cache, got %d entries", n)
	}

	if _, err := insight.AnalyzeImage(context.Background(), createTestImage(200, 150)); err != nil {
		t.Fatal(err)
	}
	insight.ClearCache()
	if n := insight.Stats().Cache.Entries; n != 0 {
		t.Errorf("Expected an empty cache after ClearCache, got %d entries", n)
	}
}

func TestSetEnabled(t *testing.T) {
	insight := New()
	insight.SetEnabled(false)

	_, err := insight.AnalyzeImage(context.Background(), createTestImage(200, 150))
	if !errors.Is(err, orchestrator.ErrDisabled) {
		t.Errorf("Expected ErrDisabled, got %v", err)
	}
}

func TestSuggestCrops(t *testing.T) {
	insight := New()
	result := &types.AnalysisResult{
		Info: types.NewImageInfo(1600, 900),
		Subjects: []types.Subject{
			{Label: "Dog", Identifier: "dog", Confidence: 0.9, Source: types.SubjectFromObject, Box: &types.Box{X: 0.4, Y: 0.3, W: 0.2, H: 0.4}},
		},
	}

	crops, err := insight.SuggestCrops(result)
	if err != nil {
		t.Fatalf("SuggestCrops failed: %v", err)
	}

	if len(crops) != len(cropper.CommonAspectRatios()) {
		t.Errorf("Expected %d crops, got %d", len(cropper.CommonAspectRatios()), len(crops))
	}

	square, ok := crops[cropper.Square.Name]
	if !ok {
		t.Fatal("Expected a square crop")
	}
	if !square.Box.Valid() {
		t.Errorf("Square crop box out of bounds: %+v", square.Box)
	}
}

func TestOverlay(t *testing.T) {
	insight := New()
	img := createTestImage(300, 200)
	result, err := insight.AnalyzeImage(context.Background(), img)
	if err != nil {
		t.Fatal(err)
	}

	out := insight.Overlay(img, result)
	if out.Bounds() != img.Bounds() {
		t.Errorf("Overlay changed bounds: %v", out.Bounds())
	}

	path := filepath.Join(t.TempDir(), "overlay.png")
	if err := insight.SaveImage(out, path, "png"); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Errorf("Expected version %s, got %s", Version, GetVersion())
	}
}
