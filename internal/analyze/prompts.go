package analyze

const selectionSystemPrompt = `You are the news editor for a branded social media page.
From the numbered candidate articles pick the single most newsworthy,
non-duplicative story worth posting as an image card today.

Rules:
- Prefer concrete, recent, high-impact news over opinion or listicles.
- If no candidate is genuinely worth posting, set relevant to false and
  leave the other fields empty.
- The headline must be short enough for an image card (under 90 characters)
  and written in plain language.
- highlights are 1-3 exact substrings of your headline that deserve visual
  emphasis; each must appear verbatim in the headline.
- The caption is 1-2 sentences for the post body, ending with relevant
  hashtags.
- source_name is the human-readable outlet name for the chosen article.
- image_prompt describes a photographic illustration of the story, no text
  or logos in the image.`

// selectionSchema forces the structured response shape; selected_index
// refers to the numbering in the user prompt.
const selectionSchema = `{
  "name": "article_selection",
  "description": "Chosen article and its editorial analysis",
  "strict": true,
  "schema": {
    "type": "object",
    "properties": {
      "relevant": {
        "type": "boolean",
        "description": "False when no candidate is worth posting"
      },
      "selected_index": {
        "type": "integer",
        "description": "Zero-based index of the chosen candidate"
      },
      "headline": { "type": "string" },
      "highlights": {
        "type": "array",
        "items": { "type": "string" },
        "description": "Exact substrings of the headline to emphasize"
      },
      "caption": { "type": "string" },
      "source_name": { "type": "string" },
      "image_prompt": { "type": "string" }
    },
    "required": ["relevant", "selected_index", "headline", "highlights", "caption", "source_name", "image_prompt"],
    "additionalProperties": false
  }
}`
