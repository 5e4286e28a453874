package protocol

import "strings"

// Segment kinds. Hosts may send others; only text contributes to commands.
const (
	SegText  = "text"
	SegAt    = "at"
	SegImage = "image"
	SegFace  = "face"
)

type Segment struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Target string `json:"target,omitempty"`
	URL    string `json:"url,omitempty"`
}

// PlainText joins the text segments of a message. When there are no
// segments the raw text is used as is.
func PlainText(segs []Segment, raw string) string {
	if len(segs) == 0 {
		return strings.TrimSpace(raw)
	}
	var b strings.Builder
	for _, s := range segs {
		if strings.EqualFold(s.Type, SegText) || strings.EqualFold(s.Type, "plain") {
			b.WriteString(s.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func (m MessageMsg) PlainText() string { return PlainText(m.Segments, m.Text) }
