package observation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

type MedicineStatus string

const (
	MedicineTaken    MedicineStatus = "Taken"
	MedicineNotTaken MedicineStatus = "Not taken"
	MedicineUnknown  MedicineStatus = "Unknown"
)

const (
	UnknownEmotion  = "Unknown"
	maxEmotionChars = 32
)

// FallbackText is substituted whenever a reply cannot be read as a record.
const FallbackText = "Medicine Status: Unknown | Emotion: Unknown"

var ErrMalformedReply = errors.New("malformed reply")

var replyPattern = regexp.MustCompile(`(?i)^medicine\s+status\s*:\s*(taken|not\s+taken|unknown)\s*\|\s*emotion\s*:\s*([^|\r\n]+)$`)

// Record is one inference result. Records are values and are never modified
// after Parse returns them.
type Record struct {
	Medicine   MedicineStatus `json:"medicine"`
	Emotion    string         `json:"emotion"`
	Seq        uint64         `json:"seq"`
	CapturedAt time.Time      `json:"captured_at"`
	Fallback   bool           `json:"fallback,omitempty"`
}

func (r Record) String() string {
	return fmt.Sprintf("Medicine Status: %s | Emotion: %s", r.Medicine, r.Emotion)
}

func Fallback() Record {
	return Record{
		Medicine: MedicineUnknown,
		Emotion:  UnknownEmotion,
		Fallback: true,
	}
}

// Parse reads a reply line. It never fails: anything that is not a single
// two-field status line becomes the fallback record.
func Parse(raw string) Record {
	r, err := ParseStrict(raw)
	if err != nil {
		return Fallback()
	}
	return r
}

func ParseStrict(raw string) (Record, error) {
	line := strings.TrimSpace(raw)
	line = strings.Trim(line, "`\"' ")
	if line == "" {
		return Record{}, fmt.Errorf("%w: empty", ErrMalformedReply)
	}

	m := replyPattern.FindStringSubmatch(line)
	if m == nil {
		return Record{}, fmt.Errorf("%w: %q", ErrMalformedReply, truncate(line, 80))
	}

	emotion := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(m[2]), "."))
	if emotion == "" || len(emotion) > maxEmotionChars {
		return Record{}, fmt.Errorf("%w: emotion %q", ErrMalformedReply, truncate(emotion, 40))
	}

	return Record{
		Medicine: normalizeMedicine(m[1]),
		Emotion:  emotion,
	}, nil
}

func normalizeMedicine(s string) MedicineStatus {
	switch strings.Join(strings.Fields(strings.ToLower(s)), " ") {
	case "taken":
		return MedicineTaken
	case "not taken":
		return MedicineNotTaken
	default:
		return MedicineUnknown
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
