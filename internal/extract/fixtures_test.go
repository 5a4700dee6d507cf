package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docgate/internal/ocr"
)

// tools is a fake Runner keyed by command name.
type tools map[string]func(args []string) ([]byte, []byte, error)

func (tl tools) runner(t *testing.T, calls *[]string) ocr.RunnerFunc {
	return func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		if calls != nil {
			*calls = append(*calls, name)
		}
		fn, ok := tl[name]
		if !ok {
			t.Fatalf("unexpected command %s %v", name, args)
		}
		return fn(args)
	}
}

func engine(t *testing.T, tl tools, calls *[]string) *ocr.Engine {
	return ocr.NewEngine(ocr.Config{}, tl.runner(t, calls), nil)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// buildPDF assembles a one-page PDF with correct xref offsets. objects are the
// bodies of objects 4.. (1 catalog, 2 pages, 3 page are fixed).
func buildPDF(pageDict string, objects ...string) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	bodies := append([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		pageDict,
	}, objects...)
	offsets := make([]int, len(bodies)+1)
	for i, body := range bodies {
		offsets[i+1] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(bodies)+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(bodies); i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(bodies)+1, xref)
	return []byte(b.String())
}

func stream(dict, data string) string {
	return "<< " + dict + " /Length " + strconv.Itoa(len(data)) + " >>\nstream\n" + data + "\nendstream"
}

func textPDF(text string) []byte {
	return encodedTextPDF(text, "")
}

// encodedTextPDF is textPDF with an explicit /Encoding on the font.
func encodedTextPDF(text, encoding string) []byte {
	font := "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>"
	if encoding != "" {
		font = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding " + encoding + " >>"
	}
	content := "BT\n/F1 12 Tf\n72 720 Td\n(" + text + ") Tj\nET"
	return buildPDF(
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		stream("", content),
		font,
	)
}

func imageOnlyPDF() []byte {
	return buildPDF(
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /XObject << /Im1 4 0 R >> >> /Contents 5 0 R >>",
		stream("/Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8", "\x00"),
		stream("", "q 100 0 0 100 72 692 cm /Im1 Do Q"),
	)
}
