package ai

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"
	"testing"
)

func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		for y := range height {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(img image.Image) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func decodeBounds(t *testing.T, data []byte) image.Rectangle {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode image: %v", err)
	}
	return img.Bounds()
}

// --- ResizeImage tests ---

func TestResizeImage_Dimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		maxSize       int
		wantW, wantH  int
	}{
		{"landscape", 2000, 1000, 500, 500, 250},
		{"portrait", 1000, 2000, 500, 250, 500},
		{"square", 1000, 1000, 200, 200, 200},
		{"no resize needed", 100, 80, 200, 100, 80},
		{"exactly max size", 500, 500, 500, 500, 500},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data := encodeJPEG(createTestImage(tc.width, tc.height, color.White))

			resized, err := ResizeImage(data, tc.maxSize)
			if err != nil {
				t.Fatalf("ResizeImage failed: %v", err)
			}

			bounds := decodeBounds(t, resized)
			if bounds.Dx() != tc.wantW || bounds.Dy() != tc.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tc.wantW, tc.wantH, bounds.Dx(), bounds.Dy())
			}
		})
	}
}

func TestResizeImage_PNGInputBecomesJPEG(t *testing.T) {
	data := encodePNG(createTestImage(100, 100, color.White))

	resized, err := ResizeImage(data, 200)
	if err != nil {
		t.Fatalf("ResizeImage failed for PNG: %v", err)
	}

	_, format, err := image.Decode(bytes.NewReader(resized))
	if err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected jpeg output format, got %s", format)
	}
}

func TestResizeImage_InvalidData(t *testing.T) {
	for _, data := range [][]byte{[]byte("not an image"), {}} {
		if _, err := ResizeImage(data, 500); err == nil {
			t.Errorf("expected error for %q", data)
		}
	}
}

// --- Data URL tests ---

func TestDataURL_RoundTrip(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff, 0x00, 0x01}

	mimeType, data, err := ParseDataURL(ToDataURL("image/png", raw))
	if err != nil {
		t.Fatalf("ParseDataURL failed: %v", err)
	}
	if mimeType != "image/png" {
		t.Errorf("expected image/png, got %s", mimeType)
	}
	if !bytes.Equal(data, raw) {
		t.Errorf("payload mismatch: %v vs %v", data, raw)
	}
}

func TestParseDataURL_Invalid(t *testing.T) {
	tests := []string{
		"https://example.com/a.jpg",
		"data:image/png;base64",
		"data:text/plain,hello",
		"data:image/png;base64,@@@not-base64@@@",
	}

	for _, in := range tests {
		if _, _, err := ParseDataURL(in); !errors.Is(err, ErrInvalidDataURL) {
			t.Errorf("ParseDataURL(%q): expected ErrInvalidDataURL, got %v", in, err)
		}
	}
}

func TestNormalizeImagePayload_WrapsBareBase64(t *testing.T) {
	got := NormalizeImagePayload("Zm9v", MaxQueryImageSize)

	// Not a decodable image, so the wrapped payload passes through.
	if got != "data:image/jpeg;base64,Zm9v" {
		t.Errorf("unexpected payload: %s", got)
	}
}

func TestNormalizeImagePayload_PassesThroughURLs(t *testing.T) {
	for _, in := range []string{
		"https://cdn.example.com/photos/a.jpg",
		" http://localhost:8080/storage/b.png ",
	} {
		if got := NormalizeImagePayload(in, MaxQueryImageSize); got != strings.TrimSpace(in) {
			t.Errorf("NormalizeImagePayload(%q) = %q, want URL unchanged", in, got)
		}
	}

	// A scheme without a host is not a fetchable URL.
	if got := NormalizeImagePayload("https:nohost", MaxQueryImageSize); !strings.HasPrefix(got, "data:image/jpeg;base64,") {
		t.Errorf("expected hostless value to be wrapped, got %q", got)
	}
}

func TestNormalizeImagePayload_Downscales(t *testing.T) {
	payload := ToDataURL("image/png", encodePNG(createTestImage(2048, 1024, color.Black)))

	got := NormalizeImagePayload(payload, 1024)

	if !strings.HasPrefix(got, "data:image/jpeg;base64,") {
		t.Fatalf("expected jpeg data URL, got prefix %q", got[:30])
	}
	_, data, err := ParseDataURL(got)
	if err != nil {
		t.Fatalf("ParseDataURL failed: %v", err)
	}
	bounds := decodeBounds(t, data)
	if bounds.Dx() != 1024 || bounds.Dy() != 512 {
		t.Errorf("expected 1024x512, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

// --- Usage tests ---

func TestUsageTracker_ConcurrentCalls(t *testing.T) {
	tracker := &usageTracker{pricing: RequestPricing{Input: 1, Output: 2}}

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			tracker.trackUsage(1_000_000, 500_000)
		})
	}
	wg.Wait()

	usage := tracker.GetUsage()
	if usage.Requests != 50 {
		t.Errorf("expected 50 requests, got %d", usage.Requests)
	}
	if usage.InputTokens != 50_000_000 {
		t.Errorf("expected 50M input tokens, got %d", usage.InputTokens)
	}
	// 50 * (1.0 + 1.0)
	if usage.TotalCost < 99.99 || usage.TotalCost > 100.01 {
		t.Errorf("expected cost 100, got %f", usage.TotalCost)
	}

	tracker.ResetUsage()
	if tracker.GetUsage() != (Usage{}) {
		t.Errorf("expected zero usage after reset, got %+v", tracker.GetUsage())
	}
}

func TestVideoMIMEType(t *testing.T) {
	tests := map[string]string{
		"https://x/a.mp4":         "video/mp4",
		"https://x/a.MOV":         "video/quicktime",
		"https://x/a.webm?token=": "video/webm",
		"https://x/a":             "video/mp4",
	}
	for in, want := range tests {
		if got := videoMIMEType(in); got != want {
			t.Errorf("videoMIMEType(%q) = %q, want %q", in, got, want)
		}
	}
}

func BenchmarkResizeImage_Large(b *testing.B) {
	data := encodeJPEG(createTestImage(4000, 3000, color.Gray{128}))

	b.ResetTimer()
	for b.Loop() {
		ResizeImage(data, MaxQueryImageSize)
	}
}
