package ytdlp

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// QualityBest is the quality value meaning "no height bound".
const QualityBest = "best"

// ErrInvalidQuality is returned for quality values that are neither "best" nor a positive height.
var ErrInvalidQuality = errors.New("quality must be 'best' or a positive height")

// ParseQuality converts a form quality value to a height bound (0 for best).
func ParseQuality(s string) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == QualityBest {
		return 0, nil
	}
	h, err := strconv.Atoi(strings.TrimSuffix(s, "p"))
	if err != nil || h <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, s)
	}
	return h, nil
}

// Selector builds the yt-dlp -f expression for a download.
func Selector(kind MediaKind, maxHeight int) string {
	if kind == KindAudio {
		return "bestaudio/best"
	}
	if maxHeight <= 0 {
		return "best[ext=mp4]/best"
	}
	h := maxHeight
	return fmt.Sprintf(
		"bestvideo[height<=%d][ext=mp4]+bestaudio[ext=m4a]/bestvideo[height<=%d]+bestaudio/best[height<=%d][ext=mp4]/best[height<=%d]",
		h, h, h, h,
	)
}

// FormatOption is one selectable entry offered to the client.
type FormatOption struct {
	// Height is 0 for the synthetic "best" option.
	Height     int
	FormatID   string
	Ext        string
	FormatNote string
	FPS        *float64
	HasAudio   bool
	HasVideo   bool
}

// IsBest reports whether this is the synthetic "best" option.
func (o FormatOption) IsBest() bool { return o.Height == 0 }

// MarshalJSON renders the synthetic option's height as "best".
func (o FormatOption) MarshalJSON() ([]byte, error) {
	var height any = o.Height
	if o.IsBest() {
		height = QualityBest
	}
	return json.Marshal(struct {
		Height     any      `json:"height"`
		FormatID   string   `json:"format_id"`
		Ext        string   `json:"ext"`
		FormatNote string   `json:"format_note"`
		FPS        *float64 `json:"fps"`
		HasAudio   bool     `json:"has_audio"`
		HasVideo   bool     `json:"has_video"`
	}{height, o.FormatID, o.Ext, o.FormatNote, o.FPS, o.HasAudio, o.HasVideo})
}

// BestOption is always the first selectable entry.
var BestOption = FormatOption{
	FormatID:   QualityBest,
	Ext:        "mp4",
	FormatNote: "Best Available",
	HasAudio:   true,
	HasVideo:   true,
}

type formatKey struct {
	height int
	fps    float64
	vcodec string
	acodec string
	ext    string
}

// SelectableFormats reduces the extractor's format list to one option per
// distinct height, tallest first, preceded by BestOption.
func SelectableFormats(formats []Format) []FormatOption {
	seen := make(map[formatKey]struct{}, len(formats))
	usable := make([]Format, 0, len(formats))
	for _, f := range formats {
		if f.FormatID == "" || (height(f) == 0 && f.ACodec == "none") {
			continue
		}
		k := formatKey{height(f), fps(f), f.VCodec, f.ACodec, f.Ext}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		usable = append(usable, f)
	}

	sort.SliceStable(usable, func(i, j int) bool {
		a, b := usable[i], usable[j]
		if height(a) != height(b) {
			return height(a) > height(b)
		}
		if fps(a) != fps(b) {
			return fps(a) > fps(b)
		}
		if a.Size() != b.Size() {
			return a.Size() > b.Size()
		}
		return a.HasVideo() && !b.HasVideo()
	})

	options := []FormatOption{BestOption}
	heights := make(map[int]struct{})
	for _, f := range usable {
		h := height(f)
		if h == 0 {
			continue
		}
		if _, dup := heights[h]; dup {
			continue
		}
		heights[h] = struct{}{}
		options = append(options, FormatOption{
			Height:     h,
			FormatID:   f.FormatID,
			Ext:        f.Ext,
			FormatNote: f.FormatNote,
			FPS:        f.FPS,
			HasAudio:   f.HasAudio(),
			HasVideo:   f.HasVideo(),
		})
	}
	return options
}

func height(f Format) int {
	if f.Height == nil {
		return 0
	}
	return *f.Height
}

func fps(f Format) float64 {
	if f.FPS == nil {
		return 0
	}
	return *f.FPS
}
