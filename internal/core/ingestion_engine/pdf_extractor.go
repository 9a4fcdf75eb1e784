package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/markdave123-py/contexta-ingest/internal/core"
	"github.com/markdave123-py/contexta-ingest/internal/models"
)

// Layout heuristics for the markdown rendering of PDF text.
const (
	h1Ratio         = 1.5  // row font / body font for "#"
	h2Ratio         = 1.2  // row font / body font for "##"
	wordGapRatio    = 0.15 // horizontal gap (in font sizes) that separates two words
	paragraphRatio  = 1.8  // vertical gap (in font sizes) that starts a new paragraph
	defaultFontSize = 12.0
	maxImageSide    = 4096
)

func init() {
	// keep pdfcpu from creating its config directory under $HOME
	model.ConfigPath = "disable"
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (*models.ExtractedContent, error) {
	text, err := pdfToMarkdown(data)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	images, err := e.extractPDFImages(data)
	if err != nil {
		e.log.WithError(err).Warn("pdf image extraction failed, continuing without images")
		images = nil
	}

	return &models.ExtractedContent{Text: text, Images: images}, nil
}

type pdfRow struct {
	y        float64
	fontSize float64
	text     string
}

// pdfToMarkdown renders the text layer of every page, top to bottom.
func pdfToMarkdown(data []byte) (out string, err error) {
	// ledongthuc/pdf panics on some malformed cross reference tables
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("%w: pdf: %v", core.ErrDecoding, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: pdf: %v", core.ErrDecoding, err)
	}

	var pages [][]pdfRow
	sizes := map[float64]int{}
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		if rows := pageRows(p.Content().Text, sizes); len(rows) > 0 {
			pages = append(pages, rows)
		}
	}

	body := dominantSize(sizes)
	rendered := make([]string, 0, len(pages))
	for _, page := range pages {
		rendered = append(rendered, renderPage(page, body))
	}
	return strings.Join(rendered, "\n\n"), nil
}

// pageRows groups glyphs sharing a baseline into lines, top of the page first, and
// adds every glyph to the document wide font size histogram. Space glyphs are not
// reported by the reader, so a space is inserted wherever the gap between two
// glyphs is wider than a fraction of the font size.
func pageRows(glyphs []pdf.Text, histogram map[float64]int) []pdfRow {
	byLine := map[int64][]pdf.Text{}
	var baselines []int64
	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			continue
		}
		y := int64(math.Round(g.Y))
		if _, ok := byLine[y]; !ok {
			baselines = append(baselines, y)
		}
		byLine[y] = append(byLine[y], g)
		if g.FontSize > 0 {
			histogram[math.Round(g.FontSize*10)/10] += len([]rune(g.S))
		}
	}
	sort.Slice(baselines, func(i, j int) bool { return baselines[i] > baselines[j] })

	rows := make([]pdfRow, 0, len(baselines))
	for _, y := range baselines {
		line := byLine[y]
		sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })

		var (
			sb      strings.Builder
			maxSize float64
			prevEnd = math.Inf(-1)
		)
		for _, g := range line {
			em := g.FontSize
			if em <= 0 {
				em = defaultFontSize
			}
			if sb.Len() > 0 && g.X-prevEnd > wordGapRatio*em {
				sb.WriteByte(' ')
			}
			sb.WriteString(g.S)
			prevEnd = math.Max(prevEnd, g.X+g.W)
			maxSize = math.Max(maxSize, g.FontSize)
		}

		if text := strings.TrimSpace(sb.String()); text != "" {
			rows = append(rows, pdfRow{y: float64(y), fontSize: maxSize, text: text})
		}
	}
	return rows
}

// dominantSize is the font size carrying the most characters; ties go to the smaller size.
func dominantSize(sizes map[float64]int) float64 {
	var best float64
	bestCount := -1
	for size, n := range sizes {
		if n > bestCount || (n == bestCount && size < best) {
			best, bestCount = size, n
		}
	}
	return best
}

func renderPage(rows []pdfRow, body float64) string {
	var sb strings.Builder
	for i, r := range rows {
		prefix := headingPrefix(r.fontSize, body)
		if i > 0 {
			gap := rows[i-1].y - r.y
			em := math.Max(math.Max(r.fontSize, body), 1)
			if prefix != "" || headingPrefix(rows[i-1].fontSize, body) != "" || gap > paragraphRatio*em {
				sb.WriteString("\n\n")
			} else {
				sb.WriteByte('\n')
			}
		}
		sb.WriteString(prefix)
		sb.WriteString(r.text)
	}
	return sb.String()
}

func headingPrefix(size, body float64) string {
	if body <= 0 || size <= 0 {
		return ""
	}
	switch {
	case size >= h1Ratio*body:
		return "# "
	case size >= h2Ratio*body:
		return "## "
	}
	return ""
}

// extractPDFImages pulls every embedded picture in page order, rescales it and
// re-encodes it as PNG. A picture that cannot be decoded is skipped.
func (e *Extractor) extractPDFImages(data []byte) (images []models.RawImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			images, err = nil, fmt.Errorf("pdfcpu: %v", r)
		}
	}()

	pages, err := api.ExtractImagesRaw(bytes.NewReader(data), nil, model.NewDefaultConfiguration())
	if err != nil {
		return nil, err
	}

	index := 0
	for _, page := range pages {
		objNrs := make([]int, 0, len(page))
		for nr := range page {
			objNrs = append(objNrs, nr)
		}
		sort.Ints(objNrs)

		for _, nr := range objNrs {
			img := page[nr]
			encoded, err := e.rescaleImage(img)
			if err != nil {
				e.log.WithError(err).
					WithField("page", img.PageNr).
					WithField("object", img.ObjNr).
					Warn("skipping pdf image")
				continue
			}
			images = append(images, models.RawImage{Data: encoded, Index: index})
			index++
		}
	}
	return images, nil
}

func (e *Extractor) rescaleImage(img model.Image) ([]byte, error) {
	if img.Reader == nil {
		return nil, fmt.Errorf("image %s has no data", img.Name)
	}
	src, _, err := image.Decode(img)
	if err != nil {
		return nil, fmt.Errorf("decode %s (%s): %w", img.Name, img.FileType, err)
	}

	out := scaleImage(src, e.imageScale)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode %s: %w", img.Name, err)
	}
	return buf.Bytes(), nil
}

// scaleImage resizes src by factor, keeping the longest side under maxImageSide.
func scaleImage(src image.Image, factor float64) image.Image {
	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	if w == 0 || h == 0 {
		return src
	}
	if longest := math.Max(w, h) * factor; longest > maxImageSide {
		factor = maxImageSide / math.Max(w, h)
	}
	if factor == 1 {
		return src
	}

	nw := int(math.Max(1, math.Round(w*factor)))
	nh := int(math.Max(1, math.Round(h*factor)))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
