package vision

import (
	"github.com/eleven-am/careflow/internal/observation"
	"github.com/tidwall/gjson"
)

const replyTextPath = "candidates.0.content.parts.0.text"

// parseReply is the only place that knows the Gemini response shape.
func parseReply(raw []byte) observation.Record {
	if !gjson.ValidBytes(raw) {
		return observation.Fallback()
	}
	text := gjson.GetBytes(raw, replyTextPath)
	if text.Type != gjson.String {
		return observation.Fallback()
	}
	return observation.Parse(text.String())
}
