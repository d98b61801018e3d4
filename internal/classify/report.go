package classify

import (
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Label CSV column names.
const (
	CodeColumn  = "LULC_Code"
	LabelColumn = "Label"
)

// ErrMissingColumn is returned when a label file lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// LoadLabels reads a CSV mapping class codes (LULC_Code) to names (Label).
// Other columns are ignored.
func LoadLabels(path string) (map[int]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read labels header: %w", err)
	}
	codeCol, labelCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case CodeColumn:
			codeCol = i
		case LabelColumn:
			labelCol = i
		}
	}
	if codeCol < 0 {
		return nil, fmt.Errorf("%s: %q: %w", path, CodeColumn, ErrMissingColumn)
	}
	if labelCol < 0 {
		return nil, fmt.Errorf("%s: %q: %w", path, LabelColumn, ErrMissingColumn)
	}

	labels := make(map[int]string)
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read labels: %w", err)
		}
		code, err := parseCode(rec[codeCol])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		labels[code] = strings.TrimSpace(rec[labelCol])
	}
	return labels, nil
}

func parseCode(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("class code %q is not an integer", s)
	}
	return int(f), nil
}

func labelFor(labels map[int]string, code int) string {
	if name, ok := labels[code]; ok && name != "" {
		return name
	}
	return strconv.Itoa(code)
}

// WriteClassAccuracies writes one CSV row per class of the matrix:
// Code, Label, Producer Accuracy, User Accuracy. Undefined accuracies are
// written as NaN.
func WriteClassAccuracies(path string, m Matrix, met Metrics, labels map[int]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create accuracies csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	_ = w.Write([]string{"Code", "Label", "Producer Accuracy", "User Accuracy"})
	for i, code := range m.Labels {
		_ = w.Write([]string{
			strconv.Itoa(code),
			labelFor(labels, code),
			strconv.FormatFloat(met.Producer[i], 'g', -1, 64),
			strconv.FormatFloat(met.User[i], 'g', -1, 64),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write accuracies csv: %w", err)
	}
	return f.Close()
}

// WriteReport prints the matrix and metrics as plain text.
func WriteReport(w io.Writer, m Matrix, met Metrics, labels map[int]string) error {
	names := make([]string, len(m.Labels))
	width := len("reference")
	for i, code := range m.Labels {
		names[i] = labelFor(labels, code)
		width = max(width, len(names[i]))
	}
	cell := width
	for _, row := range m.Counts {
		for _, c := range row {
			cell = max(cell, len(strconv.Itoa(c)))
		}
	}

	var b strings.Builder
	b.WriteString("Confusion Matrix (rows: reference, columns: predicted)\n")
	fmt.Fprintf(&b, "%-*s", width, "reference")
	for _, n := range names {
		fmt.Fprintf(&b, " %*s", cell, n)
	}
	b.WriteByte('\n')
	for i, row := range m.Counts {
		fmt.Fprintf(&b, "%-*s", width, names[i])
		for _, c := range row {
			fmt.Fprintf(&b, " %*d", cell, c)
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "Overall Accuracy: %.4f\n", met.Overall)
	for i, n := range names {
		fmt.Fprintf(&b, "%s: producer %.4f, user %.4f\n", n, met.Producer[i], met.User[i])
	}
	fmt.Fprintf(&b, "Kappa Statistic: %.4f\n", met.Kappa)

	_, err := io.WriteString(w, b.String())
	return err
}

const (
	svgCell   = 60
	svgMargin = 140
)

// WriteHeatmapSVG renders the matrix as an annotated heatmap on a white to
// dark blue ramp.
func WriteHeatmapSVG(w io.Writer, m Matrix, labels map[int]string) error {
	n := len(m.Labels)
	size := svgMargin + n*svgCell + 20
	peak := m.Max()

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" font-family="sans-serif" font-size="12">`+"\n", size, size+30)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="white"/>`+"\n", size, size+30)
	fmt.Fprintf(&b, `<text x="%d" y="20" font-size="16" text-anchor="middle">Confusion Matrix Heatmap</text>`+"\n", size/2)

	for i, row := range m.Counts {
		for j, c := range row {
			x, y := svgMargin+j*svgCell, svgMargin+i*svgCell
			t := 0.0
			if peak > 0 {
				t = float64(c) / float64(peak)
			}
			fill, ink := blues(t), "black"
			if t > 0.5 {
				ink = "white"
			}
			fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`+"\n", x, y, svgCell, svgCell, fill)
			fmt.Fprintf(&b, `<text x="%d" y="%d" fill="%s" text-anchor="middle" dominant-baseline="middle">%d</text>`+"\n",
				x+svgCell/2, y+svgCell/2, ink, c)
		}
	}

	for i, code := range m.Labels {
		name := escape(labelFor(labels, code))
		mid := svgMargin + i*svgCell + svgCell/2
		fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="end" dominant-baseline="middle">%s</text>`+"\n", svgMargin-6, mid, name)
		fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="start" transform="rotate(-45 %d %d)">%s</text>`+"\n",
			mid, svgMargin-6, mid, svgMargin-6, name)
	}

	fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="middle">Predicted Labels</text>`+"\n", svgMargin+n*svgCell/2, size+20)
	fmt.Fprintf(&b, `<text x="20" y="%d" text-anchor="middle" transform="rotate(-90 20 %d)">True Labels</text>`+"\n",
		svgMargin+n*svgCell/2, svgMargin+n*svgCell/2)
	b.WriteString("</svg>\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// blues interpolates between #f7fbff and #08306b.
func blues(t float64) string {
	t = math.Max(0, math.Min(1, t))
	lerp := func(a, b float64) int { return int(math.Round(a + (b-a)*t)) }
	return fmt.Sprintf("#%02x%02x%02x", lerp(0xf7, 0x08), lerp(0xfb, 0x30), lerp(0xff, 0x6b))
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
