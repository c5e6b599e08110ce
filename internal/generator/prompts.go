package generator

import (
	"fmt"
	"strings"
)

type promptConfig struct {
	guidance  string
	maxTokens int
}

var categoryPrompts = map[string]promptConfig{
	"daily": {
		maxTokens: 2048,
		guidance: `Category: DAILY LEARNING, a short "today I learned" journal entry.
Length: 300 to 600 words.
Markdown structure:
- two or three explanatory paragraphs
- a bullet list of the key points discovered
- a "## Takeaways" section with one to three concrete takeaways
Tone: conversational, first person.`,
	},
	"article": {
		maxTokens: 4096,
		guidance: `Category: ARTICLE, long-form and in depth.
Length: 800 to 2000 words.
Markdown structure:
- an opening paragraph that hooks the reader
- three to five H2 sections
- code examples where relevant
- a conclusion section
Tone: an expert explaining clearly, technical when needed.`,
	},
	"tutorial": {
		maxTokens: 4096,
		guidance: `Category: TUTORIAL, a step-by-step guide.
Length: 600 to 1500 words.
Markdown structure:
- "## Prerequisites"
- "## What we will build"
- numbered H2 steps ("## Step 1: ...")
- fenced code blocks with a language
- "## Result"
Tone: a patient mentor, every step self-contained.`,
	},
	"tool-focus": {
		maxTokens: 3072,
		guidance: `Category: TOOL FOCUS, an in-depth review of one tool.
Length: 500 to 1200 words.
Markdown structure:
- "## What is it?"
- "## Why use it"
- "## Getting started"
- "## Strengths and weaknesses" as bullet lists
- "## Verdict"
The tools array MUST contain the slug of the reviewed tool.
Tone: an honest tester, no marketing.`,
	},
	"concept-focus": {
		maxTokens: 3072,
		guidance: `Category: CONCEPT FOCUS, a teaching explanation of one concept.
Length: 500 to 1200 words.
Markdown structure:
- "## What is it?"
- "## Why it matters"
- "## How to apply it"
- "## Going further"
The concepts array MUST contain the explained concept.
Tone: someone who uses analogies for hard ideas.`,
	},
}

const fallbackMaxTokens = 4096

// MaxTokens is the output budget for a category.
func MaxTokens(category string) int {
	if c, ok := categoryPrompts[category]; ok {
		return c.maxTokens
	}
	return fallbackMaxTokens
}

// SystemPrompt fixes the response contract shared by every provider.
func SystemPrompt(domains []string) string {
	return fmt.Sprintf(`You are an expert technical writer for a knowledge platform about AI-native software development.
You receive raw notes and turn them into structured, well written content.

Rules:
- Answer ONLY with valid JSON, no text before or after.
- The "markdown" field must NOT repeat the title.
- "summary" is at most 160 characters.
- "domain" values must be among: %s.
- "tools" are lowercase slugs with dashes (for example "cursor", "claude-code").
- "concepts" are readable tags (for example "Prompt Engineering").
- "qualityScore" is between 0 and 1; 0.7 or more means ready to publish.

Response format:
{
  "title": "Descriptive title",
  "summary": "Short summary",
  "markdown": "## Section\n\nBody...",
  "domain": ["dev"],
  "tools": ["cursor"],
  "concepts": ["Prompt Engineering"],
  "detectedLanguage": "en",
  "qualityScore": 0.85
}`, strings.Join(domains, ", "))
}

func languageLabel(lang string) string {
	switch lang {
	case "fr":
		return "French"
	case "en":
		return "English"
	}
	return lang
}

// UserPrompt wraps the raw notes with the category guidance.
func UserPrompt(req Request) string {
	guidance := categoryPrompts[req.Category].guidance
	return fmt.Sprintf(`%s

Write in: %s

---

Raw notes:

%s`, guidance, languageLabel(req.Language), req.RawText)
}
