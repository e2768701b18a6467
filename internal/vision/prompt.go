package vision

import (
	"strings"

	"github.com/eleven-am/careflow/internal/observation"
)

const instruction = `You are monitoring a post-surgery patient via webcam.
Your job: decide if the PATIENT IS SWALLOWING A PILL **in the CURRENT frame**
and guess their current emotion (Happy, Neutral, Pain, Sad, Anxious, etc.).
Respond in **exactly** this format (no line breaks, no extra words):

Medicine Status: <Taken|Not taken|Unknown> | Emotion: <Emotion>`

const historyHeader = "Previous observations:"

// BuildPrompt appends the history block to the fixed instruction. The block
// is left out entirely when there is no history.
func BuildPrompt(history []observation.Record) string {
	if len(history) == 0 {
		return instruction
	}

	w := observation.NewWindow(len(history))
	for _, r := range history {
		w.Append(r)
	}

	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\n")
	b.WriteString(historyHeader)
	b.WriteString("\n")
	b.WriteString(w.Render())
	return b.String()
}
