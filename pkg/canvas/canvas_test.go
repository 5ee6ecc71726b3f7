package canvas

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/colornames"

	"github.com/zurustar/ipl-painter/pkg/ipl/interpreter"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestRaster(w, h int) *Raster {
	return NewRaster(w, h, WithRasterLogger(quietLogger))
}

func TestNewRasterDefaults(t *testing.T) {
	r := newTestRaster(0, -1)
	if r.Bounds() != image.Rect(0, 0, DefaultWidth, DefaultHeight) {
		t.Errorf("bounds = %v", r.Bounds())
	}
	if got := r.RGBAAt(10, 10); got != colornames.White {
		t.Errorf("background = %v, want white", got)
	}
}

func TestMarkPosition(t *testing.T) {
	r := newTestRaster(20, 20)
	r.MarkPosition(image.Pt(5, 5), colornames.Red)

	for _, p := range []image.Point{{5, 5}, {6, 5}, {5, 6}, {6, 6}} {
		if got := r.RGBAAt(p.X, p.Y); got != colornames.Red {
			t.Errorf("pixel %v = %v, want red", p, got)
		}
	}
	if got := r.RGBAAt(7, 7); got != colornames.White {
		t.Errorf("pixel (7,7) = %v, marker is 2x2", got)
	}
}

func TestLineHorizontalAndVertical(t *testing.T) {
	r := newTestRaster(20, 20)
	r.Line(image.Pt(2, 3), image.Pt(10, 3), colornames.Blue)
	r.Line(image.Pt(15, 2), image.Pt(15, 12), colornames.Blue)

	for x := 2; x <= 10; x++ {
		if got := r.RGBAAt(x, 3); got != colornames.Blue {
			t.Fatalf("pixel (%d,3) = %v, want blue", x, got)
		}
	}
	for y := 2; y <= 12; y++ {
		if got := r.RGBAAt(15, y); got != colornames.Blue {
			t.Fatalf("pixel (15,%d) = %v, want blue", y, got)
		}
	}
	if got := r.RGBAAt(2, 4); got != colornames.White {
		t.Errorf("line should be 1px wide, (2,4) = %v", got)
	}
}

func TestLineZeroLength(t *testing.T) {
	r := newTestRaster(10, 10)
	r.Line(image.Pt(4, 4), image.Pt(4, 4), colornames.Black)
	if got := r.RGBAAt(4, 4); got != colornames.Black {
		t.Errorf("zero-length line should plot a pixel, got %v", got)
	}
}

func TestRectOutlineAndFilled(t *testing.T) {
	r := newTestRaster(40, 40)
	r.Rect(image.Pt(5, 5), 10, 8, colornames.Black, false)

	if got := r.RGBAAt(5, 5); got != colornames.Black {
		t.Errorf("corner = %v", got)
	}
	if got := r.RGBAAt(15, 13); got != colornames.Black {
		t.Errorf("opposite corner = %v", got)
	}
	if got := r.RGBAAt(10, 9); got != colornames.White {
		t.Errorf("outline interior should stay white, got %v", got)
	}

	r.Rect(image.Pt(20, 20), 10, 8, colornames.Black, true)
	if got := r.RGBAAt(25, 24); got != colornames.Black {
		t.Errorf("filled interior = %v", got)
	}
	if got := r.RGBAAt(30, 24); got != colornames.White {
		t.Errorf("filled rect covers w pixels, (30,24) = %v", got)
	}
}

func TestRectNegativeSize(t *testing.T) {
	r := newTestRaster(40, 40)
	r.Rect(image.Pt(20, 20), -10, -10, colornames.Black, true)
	if got := r.RGBAAt(15, 15); got != colornames.Black {
		t.Errorf("negative size should extend up-left, got %v", got)
	}
}

func TestEllipse(t *testing.T) {
	r := newTestRaster(60, 60)
	r.Ellipse(image.Pt(30, 30), 20, colornames.Red, false)

	if got := r.RGBAAt(30, 30); got != colornames.White {
		t.Errorf("outline circle center should stay white, got %v", got)
	}
	if got := r.RGBAAt(50, 30); got.R < 128 || got.G > 128 {
		t.Errorf("rightmost point should be mostly red, got %v", got)
	}

	r.Ellipse(image.Pt(30, 30), 10, colornames.Blue, true)
	if got := r.RGBAAt(30, 30); got != colornames.Blue {
		t.Errorf("filled circle center = %v", got)
	}
}

func TestPolygon(t *testing.T) {
	r := newTestRaster(60, 60)
	tri := []image.Point{{10, 50}, {50, 50}, {30, 10}}

	r.Polygon(tri, colornames.Green, false)
	if got := r.RGBAAt(30, 40); got != colornames.White {
		t.Errorf("outline interior = %v", got)
	}
	if got := r.RGBAAt(30, 50); got != colornames.Green {
		t.Errorf("base edge = %v", got)
	}

	r.Polygon(tri, colornames.Green, true)
	if got := r.RGBAAt(30, 40); got != colornames.Green {
		t.Errorf("filled interior = %v", got)
	}

	r.Polygon(nil, colornames.Green, true)
}

func TestClearAndVersion(t *testing.T) {
	r := NewRaster(10, 10, WithRasterLogger(quietLogger))

	r.Rect(image.Pt(0, 0), 10, 10, colornames.Black, true)
	r.Refresh()
	r.Clear()
	r.Refresh()

	if got := r.RGBAAt(5, 5); got != colornames.White {
		t.Errorf("clear should restore white, got %v", got)
	}
	if r.Version() != 2 {
		t.Errorf("version = %d, want 2", r.Version())
	}
}

func TestDrawingOutsideCanvas(t *testing.T) {
	r := newTestRaster(10, 10)
	r.Line(image.Pt(-100, -100), image.Pt(-50, -50), colornames.Black)
	r.Rect(image.Pt(100, 100), 10, 10, colornames.Black, true)
	r.Ellipse(image.Pt(5, 5), 1<<30, colornames.Black, false)

	if got := r.RGBAAt(5, 5); got != colornames.White {
		t.Errorf("nothing should land on the canvas, got %v", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r := newTestRaster(10, 10)
	snap := r.Snapshot()
	r.Rect(image.Pt(0, 0), 10, 10, colornames.Black, true)

	if got := snap.RGBAAt(5, 5); got != colornames.White {
		t.Errorf("snapshot changed after drawing: %v", got)
	}
	if pix := r.CopyPixels(nil); len(pix) != 10*10*4 || pix[0] != 0 {
		t.Errorf("CopyPixels returned %d bytes, first %d", len(pix), pix[0])
	}
}

func TestInterpreterOnRaster(t *testing.T) {
	r := newTestRaster(100, 100)
	in := interpreter.New(r, interpreter.WithLogger(quietLogger))

	script := "pen red\nfill on\nmoveto 10 10\nrectangle 50 40"
	if err := in.Interpret(context.Background(), script); err != nil {
		t.Fatal(err)
	}
	if got := r.RGBAAt(30, 30); got != colornames.Red {
		t.Errorf("filled rectangle pixel = %v, want red", got)
	}
	if r.Version() != 4 {
		t.Errorf("version = %d, want one refresh per command", r.Version())
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"out.png", FormatPNG, false},
		{"OUT.PNG", FormatPNG, false},
		{"dir/out.bmp", FormatBMP, false},
		{"out.jpg", "", true},
		{"out", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSaveImage(t *testing.T) {
	r := newTestRaster(16, 16)
	r.MarkPosition(image.Pt(0, 0), colornames.Blue)
	dir := t.TempDir()

	decoders := map[string]func(io.Reader) (image.Image, error){
		"canvas.png": png.Decode,
		"canvas.bmp": bmp.Decode,
	}

	for name, decode := range decoders {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := r.Save(path); err != nil {
				t.Fatal(err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			img, err := decode(bytes.NewReader(data))
			if err != nil {
				t.Fatal(err)
			}
			if img.Bounds().Dx() != 16 {
				t.Errorf("width = %d", img.Bounds().Dx())
			}
			if got := color.RGBAModel.Convert(img.At(0, 0)); got != colornames.Blue {
				t.Errorf("pixel = %v, want blue", got)
			}
		})
	}

	if err := r.Save(filepath.Join(dir, "canvas.gif")); err == nil {
		t.Error("expected an error for an unsupported extension")
	}
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder(WithRecorderLogger(quietLogger))
	in := interpreter.New(rec, interpreter.WithLogger(quietLogger))

	if err := in.Interpret(context.Background(), "moveto 1 2\ncircle 5\npen blue\nclear"); err != nil {
		t.Fatal(err)
	}

	ops := rec.Operations()
	if len(ops) != 3 {
		t.Fatalf("operations = %v", ops)
	}
	if ops[0].Name != "MarkPosition" || ops[0].Args["x"] != 1 || ops[0].Args["y"] != 2 {
		t.Errorf("first op = %v", ops[0])
	}
	if ops[1].Name != "Ellipse" || ops[1].Args["r"] != 5 || ops[1].Args["filled"] != false {
		t.Errorf("second op = %v", ops[1])
	}
	if ops[2].Name != "Clear" {
		t.Errorf("third op = %v", ops[2])
	}
	if rec.Refreshes() != 4 {
		t.Errorf("refreshes = %d, want 4", rec.Refreshes())
	}

	rec.Reset()
	if rec.Count() != 0 || rec.Refreshes() != 0 {
		t.Error("Reset should clear history")
	}
}

func TestRecorderWithoutHistory(t *testing.T) {
	rec := NewRecorder(WithRecorderLogger(quietLogger), WithRecordHistory(false), WithLogOperations(false))
	for i := 0; i < 1000; i++ {
		rec.Line(image.Pt(0, 0), image.Pt(i, 1), colornames.Black)
	}
	rec.Clear()

	// 履歴は残さないが、操作の数は数える
	if rec.Count() != 1001 {
		t.Errorf("count = %d, want 1001", rec.Count())
	}
	if ops := rec.Operations(); len(ops) != 0 {
		t.Errorf("history kept %d operations, want none", len(ops))
	}

	rec.Reset()
	if rec.Count() != 0 {
		t.Errorf("count after Reset = %d, want 0", rec.Count())
	}
}

func TestMulti(t *testing.T) {
	a := NewRecorder(WithRecorderLogger(quietLogger))
	b := newTestRaster(20, 20)
	surface := Multi(a, nil, b)

	in := interpreter.New(surface, interpreter.WithLogger(quietLogger))
	if err := in.Interpret(context.Background(), "pen green\nmoveto 3 3\ndrawto 10 3"); err != nil {
		t.Fatal(err)
	}

	if a.Count() != 2 {
		t.Errorf("recorder saw %d operations, want 2", a.Count())
	}
	if got := b.RGBAAt(7, 3); got != colornames.Green {
		t.Errorf("raster pixel = %v, want green", got)
	}
	if a.Refreshes() != 3 || b.Version() != 3 {
		t.Errorf("refreshes = %d/%d, want 3", a.Refreshes(), b.Version())
	}
}
