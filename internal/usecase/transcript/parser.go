package transcript

import (
	"regexp"
	"strings"
)

// Format identifies a supported transcript export format
type Format string

const (
	FormatVTT     Format = "vtt"
	FormatSRT     Format = "srt"
	FormatOtter   Format = "otter"
	FormatTLDV    Format = "tldv"
	FormatZoomTXT Format = "zoom_txt"
	FormatPlain   Format = "plain"
)

// Segment is a single speaker-annotated stretch of the transcript.
// Produced transiently; never persisted independently.
type Segment struct {
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Speaker   string `json:"speaker,omitempty"`
	Text      string `json:"text"`
}

// Metadata summarizes a parse
type Metadata struct {
	SegmentCount int      `json:"segment_count"`
	Speakers     []string `json:"speakers,omitempty"`
}

// Parsed is the result of parsing one transcript file
type Parsed struct {
	Format   Format    `json:"format"`
	Segments []Segment `json:"segments"`
	FlatText string    `json:"flat_text"`
	Metadata Metadata  `json:"metadata"`
}

var (
	srtSignatureRe  = regexp.MustCompile(`^\d+\s*\n\d{2}:\d{2}:\d{2},\d{3}\s*-->\s*\d{2}:\d{2}:\d{2},\d{3}`)
	otterHeadingRe  = regexp.MustCompile(`(?m)^[A-Za-z\s]+\s+\d{1,2}:\d{2}$`)
	zoomLineHintRe  = regexp.MustCompile(`\[\d{2}:\d{2}:\d{2}\]\s+\w+:`)
	cueStartRe      = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}`)
	vttTimestampRe  = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2}[.,]\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2}[.,]\d{3})`)
	srtTimestampRe  = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2},\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2},\d{3})`)
	speakerSplitRe  = regexp.MustCompile(`^([^:]+):\s*(.+)$`)
	blockSplitRe    = regexp.MustCompile(`\n\s*\n`)
	otterPattern1   = regexp.MustCompile(`^([A-Za-z\x{3040}-\x{9fff}\s]+)\s+(\d{1,2}:\d{2}(?::\d{2})?)\s*$`)
	otterPattern2   = regexp.MustCompile(`^\[(\d{1,2}:\d{2}(?::\d{2})?)\]\s*(.+?):\s*$`)
	otterPattern3   = regexp.MustCompile(`^([A-Za-z\x{3040}-\x{9fff}\s]+)\s*\((\d{1,2}:\d{2}(?::\d{2})?)\)\s*$`)
	tldvSpeakerRe   = regexp.MustCompile(`^\*{0,2}([^*(]+?)\*{0,2}\s*\((\d{1,2}:\d{2}(?::\d{2})?)\)\s*$`)
	markdownBoldRe  = regexp.MustCompile(`\*{1,2}([^*]+)\*{1,2}`)
	zoomSegmentRe   = regexp.MustCompile(`^\[(\d{2}:\d{2}:\d{2})\]\s*([^:]+):\s*(.+)$`)
)

// DetectFormat detects the transcript format from filename and content.
// First match wins: extension, then content signatures, then heuristics.
func DetectFormat(content, filename string) Format {
	contentLower := strings.ToLower(strings.TrimSpace(content))
	filenameLower := strings.ToLower(filename)

	if strings.HasSuffix(filenameLower, ".vtt") {
		return FormatVTT
	}
	if strings.HasSuffix(filenameLower, ".srt") {
		return FormatSRT
	}

	if strings.HasPrefix(contentLower, "webvtt") {
		return FormatVTT
	}

	// SRT signature: numeric index line followed by a comma-timestamp pair
	if srtSignatureRe.MatchString(strings.TrimSpace(content)) {
		return FormatSRT
	}

	if strings.Contains(contentLower, "otter.ai") || otterHeadingRe.MatchString(content) {
		return FormatOtter
	}

	if strings.Contains(contentLower, "tl;dv") || strings.Contains(contentLower, "tldv") {
		return FormatTLDV
	}

	if zoomLineHintRe.MatchString(content) {
		return FormatZoomTXT
	}

	return FormatPlain
}

// Parse detects the format and parses accordingly. Never fails: anything
// unrecognized, and any structured parse yielding zero segments, degrades to
// a single-segment plain parse of the raw text.
func Parse(content, filename string) Parsed {
	switch DetectFormat(content, filename) {
	case FormatVTT:
		return parseVTT(content)
	case FormatSRT:
		return parseSRT(content)
	case FormatOtter:
		return parseOtter(content)
	case FormatTLDV:
		return parseTLDV(content)
	case FormatZoomTXT:
		return parseZoomTXT(content)
	default:
		return parsePlain(content)
	}
}

func parseVTT(content string) Parsed {
	var segments []Segment
	lines := strings.Split(content, "\n")

	i := 0
	// Skip header
	for i < len(lines) && !cueStartRe.MatchString(lines[i]) {
		i++
	}

	for i < len(lines) {
		line := strings.TrimSpace(lines[i])

		m := vttTimestampRe.FindStringSubmatch(line)
		if m == nil {
			i++
			continue
		}
		startTime := m[1]
		endTime := m[2]

		// Collect text lines until the next cue or a blank line
		i++
		var textLines []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" && !cueStartRe.MatchString(lines[i]) {
			textLines = append(textLines, strings.TrimSpace(lines[i]))
			i++
		}

		if len(textLines) > 0 {
			speaker, text := splitSpeaker(strings.Join(textLines, " "))
			segments = append(segments, Segment{
				StartTime: startTime,
				EndTime:   endTime,
				Speaker:   speaker,
				Text:      text,
			})
		}
	}

	return finish(FormatVTT, segments, content)
}

func parseSRT(content string) Parsed {
	var segments []Segment

	blocks := blockSplitRe.Split(strings.TrimSpace(content), -1)
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}

		timestampLine := ""
		textStart := 0
		for idx, line := range lines {
			if strings.Contains(line, "-->") {
				timestampLine = line
				textStart = idx + 1
				break
			}
		}
		if timestampLine == "" {
			continue
		}

		m := srtTimestampRe.FindStringSubmatch(timestampLine)
		if m == nil {
			continue
		}
		startTime := strings.ReplaceAll(m[1], ",", ".")
		endTime := strings.ReplaceAll(m[2], ",", ".")

		var textLines []string
		for _, line := range lines[textStart:] {
			if s := strings.TrimSpace(line); s != "" {
				textLines = append(textLines, s)
			}
		}
		if len(textLines) == 0 {
			continue
		}

		speaker, text := splitSpeaker(strings.Join(textLines, " "))
		segments = append(segments, Segment{
			StartTime: startTime,
			EndTime:   endTime,
			Speaker:   speaker,
			Text:      text,
		})
	}

	return finish(FormatSRT, segments, content)
}

func parseOtter(content string) Parsed {
	var segments []Segment

	currentSpeaker := ""
	currentTime := ""
	var currentText []string

	flush := func() {
		if len(currentText) > 0 {
			segments = append(segments, Segment{
				StartTime: currentTime,
				Speaker:   currentSpeaker,
				Text:      strings.Join(currentText, " "),
			})
			currentText = nil
		}
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := otterPattern1.FindStringSubmatch(line); m != nil {
			flush()
			currentSpeaker = strings.TrimSpace(m[1])
			currentTime = m[2]
			continue
		}
		if m := otterPattern2.FindStringSubmatch(line); m != nil {
			flush()
			currentTime = m[1]
			currentSpeaker = strings.TrimSpace(m[2])
			continue
		}
		if m := otterPattern3.FindStringSubmatch(line); m != nil {
			flush()
			currentSpeaker = strings.TrimSpace(m[1])
			currentTime = m[2]
			continue
		}

		currentText = append(currentText, line)
	}
	flush()

	return finish(FormatOtter, segments, content)
}

func parseTLDV(content string) Parsed {
	var segments []Segment

	currentSpeaker := ""
	currentTime := ""
	var currentText []string

	flush := func() {
		if len(currentText) > 0 {
			segments = append(segments, Segment{
				StartTime: currentTime,
				Speaker:   currentSpeaker,
				Text:      strings.Join(currentText, " "),
			})
			currentText = nil
		}
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		if strings.Contains(lower, "### transcript") || strings.Contains(lower, "## transcript") {
			continue
		}
		// Skip metadata lines
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "**Date") {
			continue
		}

		if m := tldvSpeakerRe.FindStringSubmatch(line); m != nil {
			flush()
			currentSpeaker = strings.TrimSpace(m[1])
			currentTime = m[2]
			continue
		}

		clean := markdownBoldRe.ReplaceAllString(line, "$1")
		if clean != "" {
			currentText = append(currentText, clean)
		}
	}
	flush()

	return finish(FormatTLDV, segments, content)
}

func parseZoomTXT(content string) Parsed {
	var segments []Segment

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if m := zoomSegmentRe.FindStringSubmatch(line); m != nil {
			segments = append(segments, Segment{
				StartTime: m[1],
				Speaker:   strings.TrimSpace(m[2]),
				Text:      strings.TrimSpace(m[3]),
			})
		}
	}

	return finish(FormatZoomTXT, segments, content)
}

func parsePlain(content string) Parsed {
	clean := strings.TrimSpace(content)
	segments := []Segment{{Text: clean}}
	return Parsed{
		Format:   FormatPlain,
		Segments: segments,
		FlatText: clean,
		Metadata: Metadata{SegmentCount: 1},
	}
}

// finish assembles the result, degrading to plain when a structured parser
// produced nothing.
func finish(format Format, segments []Segment, original string) Parsed {
	if len(segments) == 0 {
		return parsePlain(original)
	}
	return Parsed{
		Format:   format,
		Segments: segments,
		FlatText: flatten(segments),
		Metadata: Metadata{
			SegmentCount: len(segments),
			Speakers:     distinctSpeakers(segments),
		},
	}
}

// flatten joins segments as "speaker: text" blocks separated by blank
// lines; timestamp and markup noise never reaches the extraction step.
func flatten(segments []Segment) string {
	lines := make([]string, 0, len(segments))
	for _, s := range segments {
		if s.Speaker != "" {
			lines = append(lines, s.Speaker+": "+s.Text)
		} else {
			lines = append(lines, s.Text)
		}
	}
	return strings.Join(lines, "\n\n")
}

// splitSpeaker splits "name: text" on the first colon; no colon means no
// speaker.
func splitSpeaker(full string) (speaker, text string) {
	if m := speakerSplitRe.FindStringSubmatch(full); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return "", full
}

func distinctSpeakers(segments []Segment) []string {
	seen := make(map[string]bool)
	var speakers []string
	for _, s := range segments {
		if s.Speaker != "" && !seen[s.Speaker] {
			seen[s.Speaker] = true
			speakers = append(speakers, s.Speaker)
		}
	}
	return speakers
}
