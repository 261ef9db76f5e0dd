package generate

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an expert content writer who turns YouTube videos into polished written articles with strong SEO.

Watch the provided video carefully, then write a long-form article covering its content, structure and key takeaways.

You MUST respond with ONLY valid JSON — no markdown, no explanation, no preamble.

The JSON must have exactly these fields:
- "titles": array of exactly 3 alternative article titles (distinct angles, max 70 chars each)
- "article": string, the full article body in markdown (800-1500 words, headings, natural keyword use)
- "seo_description": string, a 150-160 character meta description
- "screenshots": array of 3-6 objects, each {"timestamp": "mm:ss", "reason": "why this moment illustrates the article"}

Screenshot rules:
- timestamps must be moments that visually support the article (demos, charts, reveals)
- "mm:ss" format, e.g. "01:30"
- spread them across the video, never cluster in the first minute`

// BuildPrompt assembles the instruction text from the video title, the
// caller's free-text instructions and a manifest of attached reference
// material. Reference parts precede this text in the request, so the
// manifest tells the model what those attachments are.
func BuildPrompt(videoTitle, userInstructions string, referenceManifest []string) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n")
	if videoTitle != "" {
		sb.WriteString(fmt.Sprintf("VIDEO TITLE: %s\n\n", videoTitle))
	}
	if len(referenceManifest) > 0 {
		sb.WriteString("ATTACHED REFERENCE MATERIAL (before this message, in order):\n")
		for _, ref := range referenceManifest {
			sb.WriteString("- " + ref + "\n")
		}
		sb.WriteString("Match the tone and terminology of the reference material.\n\n")
	}
	if userInstructions != "" {
		sb.WriteString(fmt.Sprintf("ADDITIONAL INSTRUCTIONS FROM THE AUTHOR:\n%s\n\n", userInstructions))
	}
	sb.WriteString("Respond ONLY with valid JSON.")
	return sb.String()
}
