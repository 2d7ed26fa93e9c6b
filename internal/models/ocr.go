package models

// OCRDocument is the nested output of an OCR extractor:
// pages → blocks → lines → words.
type OCRDocument struct {
	Engine string    `json:"engine"`
	Pages  []OCRPage `json:"pages"`
}

type OCRPage struct {
	Blocks []OCRBlock `json:"blocks"`
}

type OCRBlock struct {
	Lines []OCRLine `json:"lines"`
}

type OCRLine struct {
	Words []OCRWord `json:"words"`
}

type OCRWord struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// WordCount returns the number of words across all pages.
func (d *OCRDocument) WordCount() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, p := range d.Pages {
		for _, b := range p.Blocks {
			for _, l := range b.Lines {
				n += len(l.Words)
			}
		}
	}
	return n
}
