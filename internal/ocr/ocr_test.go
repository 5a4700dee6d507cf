package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

func recorder(calls *[]call, fn RunnerFunc) RunnerFunc {
	return func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		*calls = append(*calls, call{name: name, args: args})
		return fn(ctx, name, args...)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"crlf and tabs", "Total:\t\t$5.00\r\nThanks  !\r\n", "Total: $5.00\nThanks !"},
		{"blank lines", "a\n\n\n\n\nb", "a\n\nb"},
		{"box noise", "Header\n-------\nBody", "Header\n\nBody"},
		{"O in digits", "Amount 1O5.OO", "Amount 105.OO"},
		{"dates untouched", "Date: 05/03/2024", "Date: 05/03/2024"},
		{"control chars", "a\x00b\x07c", "abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
			assert.Equal(t, Normalize(tc.in), Normalize(Normalize(tc.in)))
		})
	}
}

func TestNormalizeLayoutKeepsColumns(t *testing.T) {
	in := "Item        Qty    Amount   \r\nWidget      2      10.00\n\n\n\n"
	assert.Equal(t, "Item        Qty    Amount\nWidget      2      10.00", NormalizeLayout(in))
}

func TestTesseractArgs(t *testing.T) {
	var calls []call
	e := NewEngine(Config{TessdataDir: "/td"}, recorder(&calls, func(context.Context, string, ...string) ([]byte, []byte, error) {
		return []byte("Total $9.99\n"), nil, nil
	}), nil)

	txt, warns, err := e.Tesseract(context.Background(), "/x/in.png")
	require.NoError(t, err)
	assert.Empty(t, warns)
	assert.Equal(t, "Total $9.99\n", txt)
	require.Len(t, calls, 1)
	assert.Equal(t, "tesseract", calls[0].name)
	assert.Equal(t, []string{"/x/in.png", "stdout", "-l", "eng", "--oem", "3", "--psm", "6", "--tessdata-dir", "/td"}, calls[0].args)
}

func TestTesseractFailureCarriesStderr(t *testing.T) {
	e := NewEngine(Config{}, RunnerFunc(func(context.Context, string, ...string) ([]byte, []byte, error) {
		return nil, []byte("Error opening data file eng.traineddata"), errors.New("exit status 1")
	}), nil)
	_, warns, err := e.Tesseract(context.Background(), "in.png")
	require.Error(t, err)
	assert.Equal(t, []string{"Error opening data file eng.traineddata"}, warns)
}

func TestTSVConfidence(t *testing.T) {
	tsv := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t\n" +
		"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tTotal\n" +
		"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t70\t$5.00\n"
	e := NewEngine(Config{}, RunnerFunc(func(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
		assert.Equal(t, "tsv", args[len(args)-1])
		return []byte(tsv), nil, nil
	}), nil)
	conf, _, err := e.TSVConfidence(context.Background(), "in.png")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, conf, 0.0001)
}

func TestPdfToTextSplitsPages(t *testing.T) {
	e := NewEngine(Config{}, RunnerFunc(func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		assert.Equal(t, "pdftotext", name)
		assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-eol", "unix", "/d/a.pdf", "-"}, args)
		return []byte("page one\n\fpage two\n\f"), nil, nil
	}), nil)
	pages, _, err := e.PdfToText(context.Background(), "/d/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"page one\n", "page two\n"}, pages)
}

func TestMissingBinaryIsDetectable(t *testing.T) {
	_, _, err := ExecRunner{}.Run(context.Background(), "docgate-no-such-binary", nil)
	require.Error(t, err)
	assert.True(t, IsMissingBinary(err))

	e := NewEngine(Config{}, RunnerFunc(func(context.Context, string, ...string) ([]byte, []byte, error) {
		return nil, nil, &exec.Error{Name: "pdftotext", Err: exec.ErrNotFound}
	}), nil)
	_, _, err = e.PdfToText(context.Background(), "a.pdf")
	assert.True(t, IsMissingBinary(err))
}

func TestRasterizeAndOCRPage(t *testing.T) {
	var calls []call
	e := NewEngine(Config{DPI: 150}, recorder(&calls, func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		if name == "pdftoppm" {
			prefix := args[len(args)-1]
			require.NoError(t, os.WriteFile(prefix+"-2.png", []byte("png"), 0o644))
			return nil, nil, nil
		}
		return []byte("Scanned  text\n"), nil, nil
	}), nil)

	txt, _, err := e.OCRPDFPage(context.Background(), "/d/scan.pdf", 2)
	require.NoError(t, err)
	assert.Equal(t, "Scanned text", txt)
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"-r", "150", "-png", "-f", "2", "-l", "2", "/d/scan.pdf"}, calls[0].args[:8])
	assert.Equal(t, "tesseract", calls[1].name)
}

func TestOCRPDFPageHonoursMaxPages(t *testing.T) {
	var calls []call
	e := NewEngine(Config{MaxPages: 1}, recorder(&calls, func(context.Context, string, ...string) ([]byte, []byte, error) {
		return nil, nil, errors.New("should not run")
	}), nil)

	txt, warns, err := e.OCRPDFPage(context.Background(), "/d/scan.pdf", 2)
	require.NoError(t, err)
	assert.Empty(t, txt)
	assert.Equal(t, []string{"page 2 not OCRed (max_pages 1)"}, warns)
	assert.Empty(t, calls)
}

func TestConvertHEIC(t *testing.T) {
	e := NewEngine(Config{HeicConverter: "magick"}, RunnerFunc(func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		assert.Equal(t, "magick", name)
		return nil, nil, os.WriteFile(args[1], []byte("png"), 0o644)
	}), nil)
	out, _, cleanup, err := e.ConvertHEIC(context.Background(), "/d/photo.heic")
	require.NoError(t, err)
	assert.FileExists(t, out)
	cleanup()
	assert.NoFileExists(t, out)

	e = NewEngine(Config{HeicConverter: "gimp"}, nil, nil)
	_, _, cleanup, err = e.ConvertHEIC(context.Background(), "/d/photo.heic")
	cleanup()
	assert.Error(t, err)
}

func TestHeuristicConfidence(t *testing.T) {
	assert.Equal(t, float32(0), HeuristicConfidence("  "))
	low := HeuristicConfidence("hello")
	high := HeuristicConfidence("Date: 2024-03-05\nTotal USD 42.10")
	assert.Greater(t, high, low)
	assert.LessOrEqual(t, high, float32(1))
	assert.InDelta(t, 0.7*0.9+0.3*0.5, BlendConfidence(0.9, 0.5), 0.0001)
	assert.Equal(t, float32(0.5), BlendConfidence(0, 0.5))
}

func TestPreprocessStretchesContrast(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			v := uint8(100)
			if x >= 5 {
				v = 150
			}
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	g := Preprocess(img)
	assert.Equal(t, image.Rect(0, 0, 10, 10), g.Bounds())
	assert.Equal(t, uint8(0), g.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), g.GrayAt(9, 9).Y)
	assert.Equal(t, g.Pix, Preprocess(img).Pix)

	flat := image.NewGray(image.Rect(0, 0, 4, 4))
	assert.NotPanics(t, func() { Preprocess(flat) })
}

func TestBinarize(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 1))
	copy(g.Pix, []uint8{10, 20, 200, 220})
	Binarize(g)
	assert.Equal(t, []uint8{0, 0, 255, 255}, g.Pix)
}

func TestPageNumberOrdering(t *testing.T) {
	assert.Equal(t, 10, pageNumber(filepath.Join("x", "page-10.png")))
	assert.Equal(t, 2, pageNumber("page-02.png"))
}
