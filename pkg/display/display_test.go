package display

import (
	"image"
	"testing"
	"time"
)

func TestResize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	if got := Resize(img).Bounds().Size(); got != Size {
		t.Errorf("Resize size = %v, want %v", got, Size)
	}
}

func TestHeadlessShowAndHide(t *testing.T) {
	h := NewHeadless(nil)
	if err := h.Show(ViewWindow, image.NewRGBA(image.Rect(0, 0, 64, 32))); err != nil {
		t.Fatal(err)
	}
	img, ok := h.Last(ViewWindow)
	if !ok || img.Bounds().Size() != Size {
		t.Fatalf("Last(VIEW) = %v, %v", img, ok)
	}
	if h.Shown() != 1 {
		t.Errorf("Shown = %d", h.Shown())
	}
	h.Hide(ViewWindow)
	if _, ok := h.Last(ViewWindow); ok {
		t.Error("window still present after Hide")
	}
}

func TestHeadlessWaitKey(t *testing.T) {
	keys := make(chan int, 2)
	h := NewHeadless(keys)

	if k := h.WaitKey(0); k != NoKey {
		t.Errorf("empty poll = %d", k)
	}
	keys <- 'q'
	if k := h.WaitKey(0); k != 'q' {
		t.Errorf("poll = %d, want q", k)
	}

	start := time.Now()
	if k := h.WaitKey(20); k != NoKey {
		t.Errorf("timed wait = %d", k)
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Error("WaitKey returned before its timeout")
	}

	go func() { keys <- 'b' }()
	if k := h.WaitKey(1000); k != 'b' {
		t.Errorf("wait = %d, want b", k)
	}

	close(keys)
	if k := h.WaitKey(10); k != NoKey {
		t.Errorf("closed channel = %d", k)
	}
}
