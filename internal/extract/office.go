package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	docxDefaultPath     = "word/document.xml"
	docxContentTypes    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	odfContentPath      = "content.xml"
)

var (
	// <w:t>, <a:t> and the ODF text elements, with any attributes.
	wordText  = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	drawText  = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)
	odfText   = regexp.MustCompile(`<text:(?:p|h|span)[^>]*>([^<]*)</text:(?:p|h|span)>`)
	slideName = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	odfPage   = regexp.MustCompile(`<draw:page[ >]`)

	// PartName of the main document in either attribute order.
	docxPartName = []*regexp.Regexp{
		regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`),
		regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`),
	}
)

func openZip(content []byte, format string) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract %s: not a zip: %w", format, err)
	}
	return zr, nil
}

// readZipFile returns the named entry, or nil when it is absent.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, nil
}

// joinMatches joins the first capture group of every match with single spaces.
func joinMatches(re *regexp.Regexp, xml string) string {
	var b strings.Builder
	for _, m := range re.FindAllStringSubmatch(xml, -1) {
		t := strings.TrimSpace(m[1])
		if t == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t)
	}
	return b.String()
}

// extractDOCX reads every <w:t> run. The main part is located through
// [Content_Types].xml; paragraph attributes vary too much for a paragraph regex.
func extractDOCX(content []byte) ([]page, error) {
	zr, err := openZip(content, "DOCX")
	if err != nil {
		return nil, err
	}
	docPath := docxDefaultPath
	types, err := readZipFile(zr, docxContentTypes)
	if err != nil {
		return nil, fmt.Errorf("extract DOCX: %w", err)
	}
	for _, re := range docxPartName {
		if m := re.FindSubmatch(types); len(m) > 1 {
			docPath = strings.TrimPrefix(string(m[1]), "/")
			break
		}
	}
	xml, err := readZipFile(zr, docPath)
	if err != nil {
		return nil, fmt.Errorf("extract DOCX: %w", err)
	}
	if xml == nil {
		return nil, fmt.Errorf("extract DOCX: %s not found", docPath)
	}
	return wholeDocument(joinMatches(wordText, string(xml))), nil
}

// extractPPTX returns one page per slide, numbered by the slide file name.
func extractPPTX(content []byte) ([]page, error) {
	zr, err := openZip(content, "PPTX")
	if err != nil {
		return nil, err
	}
	var pages []page
	for _, f := range zr.File {
		m := slideName.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		xml, err := readZipFile(zr, f.Name)
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: %w", err)
		}
		pages = append(pages, page{number: num, text: joinMatches(drawText, string(xml))})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].number < pages[j].number })
	return pages, nil
}

func readODFContent(content []byte, format string) (string, error) {
	zr, err := openZip(content, format)
	if err != nil {
		return "", err
	}
	xml, err := readZipFile(zr, odfContentPath)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", format, err)
	}
	if xml == nil {
		return "", fmt.Errorf("extract %s: %s not found", format, odfContentPath)
	}
	return string(xml), nil
}

// extractODP returns one page per <draw:page>, numbered from 1.
func extractODP(content []byte) ([]page, error) {
	xml, err := readODFContent(content, "ODP")
	if err != nil {
		return nil, err
	}
	starts := odfPage.FindAllStringIndex(xml, -1)
	if len(starts) == 0 {
		return wholeDocument(joinMatches(odfText, xml)), nil
	}
	pages := make([]page, len(starts))
	for i, loc := range starts {
		end := len(xml)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		pages[i] = page{number: i + 1, text: joinMatches(odfText, xml[loc[0]:end])}
	}
	return pages, nil
}

// extractODS reads all cell text as a single page.
func extractODS(content []byte) ([]page, error) {
	xml, err := readODFContent(content, "ODS")
	if err != nil {
		return nil, err
	}
	return wholeDocument(joinMatches(odfText, xml)), nil
}
