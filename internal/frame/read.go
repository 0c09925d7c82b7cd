package frame

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Options controls how delimited text is parsed into a Frame.
type Options struct {
	// Delimiter for fields. If 0, sniffed from the header line among ',', ';', '\t'.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, strip common separators (',' '.' space)
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
	// Sheet selects an .xlsx worksheet by name; SheetIndex (1-based) is used
	// when Sheet is empty. Both default to the first sheet.
	Sheet      string
	SheetIndex int
}

// DefaultOptions returns reasonable defaults for interactive datasets.
func DefaultOptions() Options {
	return Options{MaxRows: 1_000_000}
}

// ErrEmpty is returned when the input has no header row.
var ErrEmpty = errors.New("empty dataset: no header row")

// LoadFile reads a CSV/TSV or .xlsx file from disk.
func LoadFile(path string, opt Options) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path), opt)
}

// Read parses delimited text, or an .xlsx workbook, with a header row. name
// is used for format hints (".tsv", ".xlsx") and reporting only.
func Read(r io.Reader, name string, opt Options) (*Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}
	if isXLSX(name, data) {
		return readXLSX(data, name, opt)
	}
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name, data)
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim
	return build(name, cr.Read, opt)
}

// build assembles a frame from a header row followed by records; next
// returns io.EOF once the input is exhausted.
func build(name string, next func() ([]string, error), opt Options) (*Frame, error) {
	header, err := next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	ncol := len(header)
	names := dedupeNames(header)

	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	raw := make([][]string, ncol)
	rows := 0
	truncated := false
	for {
		rec, err := next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", rows+1, err)
		}
		if rows >= maxRows {
			truncated = true
			break
		}
		for j := 0; j < ncol; j++ {
			v := ""
			if j < len(rec) {
				v = strings.TrimSpace(rec[j])
			}
			raw[j] = append(raw[j], v)
		}
		rows++
	}

	cols := make([]*Series, ncol)
	for j := 0; j < ncol; j++ {
		cols[j] = inferSeries(names[j], raw[j], opt)
	}
	return &Frame{name: name, cols: cols, rows: rows, truncated: truncated}, nil
}

// sniffDelimiter picks the most frequent candidate separator on the header line.
func sniffDelimiter(name string, data []byte) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestN := ',', 0
	for _, c := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

func dedupeNames(header []string) []string {
	seen := map[string]int{}
	out := make([]string, len(header))
	for i, h := range header {
		n := strings.TrimSpace(h)
		if n == "" {
			n = fmt.Sprintf("Unnamed: %d", i)
		}
		if k, ok := seen[n]; ok {
			seen[n] = k + 1
			n = fmt.Sprintf("%s.%d", n, k+1)
		} else {
			seen[n] = 0
		}
		out[i] = n
	}
	return out
}

// inferSeries decides the column kind by predominant parsed type.
func inferSeries(name string, raw []string, opt Options) *Series {
	_, unit := splitUnits(name)
	s := &Series{Name: name, Unit: unit, raw: raw, nums: make([]float64, len(raw))}
	var numCnt, dtCnt, txtCnt int
	for i, v := range raw {
		s.nums[i] = math.NaN()
		if isNA(v) {
			continue
		}
		if strings.Contains(v, "%") && s.Unit == "" {
			s.Unit = "%"
		}
		if x, ok := parseNumeric(v, opt); ok {
			s.nums[i] = x
			numCnt++
			continue
		}
		if _, ok := parseTimeMaybe(v); ok {
			dtCnt++
			continue
		}
		txtCnt++
	}
	switch {
	case numCnt >= dtCnt && numCnt >= txtCnt && numCnt > 0:
		s.Kind = KindNumeric
	case dtCnt >= txtCnt && dtCnt > 0:
		s.Kind = KindDatetime
	case txtCnt > 0:
		s.Kind = KindCategorical
		distinct := map[string]struct{}{}
		long := 0
		for _, v := range raw {
			if isNA(v) {
				continue
			}
			distinct[v] = struct{}{}
			if len(v) > 64 {
				long++
			}
		}
		if long > 0 || (len(distinct) > 50 && len(distinct)*2 > txtCnt) {
			s.Kind = KindText
		}
	default:
		s.Kind = KindUnknown
	}
	if s.Kind != KindNumeric {
		if s.Unit == "%" {
			s.Unit = ""
		}
	}
	return s
}

var naTokens = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "null": true, "none": true, "#n/a": true,
}

func isNA(v string) bool { return naTokens[strings.ToLower(strings.TrimSpace(v))] }

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // e.g., Alpha (%)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // e.g., Mass [mg/L]
	{regexp.MustCompile(`^(.*?)[_\s-]+(mg/L|g/L|ug/L|°[CF]|Brix|%|ppm|ppb)$`), 2},
}

func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}
