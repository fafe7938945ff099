// AngelaMos | 2026
// prompt.go

package generation

import (
	"strings"
)

const blogInstructions = `Focus on the current content. Use a neutral, professional tone.
Convert the transcription below into a well-structured blog post using Markdown formatting:
1. Start with an SEO friendly, catchy title on the first line.
2. Follow the title with one blank line.
3. Write an engaging introduction paragraph.
4. Split the main content into sections with headings (##, ###).
5. Add subheadings within sections where they help.
6. Use bullet points or numbered lists where appropriate.
7. Finish with a conclusion paragraph.
8. Do not wrap the output in code fences and do not begin or end it with the word "markdown".`

const seoInstructions = `You are an SEO assistant. Read the blog post below and respond with a single JSON object and nothing else:
{"seoTitle": string, "metaDescription": string, "tags": [string]}
- seoTitle: a search friendly title under 60 characters.
- metaDescription: a summary under 160 characters.
- tags: 3 to 8 hashtags, each starting with "#", with no spaces or punctuation inside a tag.`

// BlogPrompt builds the post-writing prompt. styleReference is the
// author's most recent post and may be empty.
func BlogPrompt(transcript, styleReference string) string {
	var b strings.Builder
	b.WriteString(blogInstructions)

	if ref := strings.TrimSpace(styleReference); ref != "" {
		b.WriteString("\n\nHere is one of my previous blog posts for style reference:\n")
		b.WriteString(ref)
	}

	b.WriteString("\n\nHere is the transcription to convert:\n")
	b.WriteString(strings.TrimSpace(transcript))
	return b.String()
}

func SEOPrompt(blog string) string {
	return seoInstructions + "\n\nBlog post:\n" + blog
}
