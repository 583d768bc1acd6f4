package prompts

// ============================================================================
// Frame Captioning Prompts (Vision Language Model)
// ============================================================================

// CaptionSystemPrompt defines the role for frame caption generation. The
// output is embedded for semantic search, so the description has to stand
// alone without the surrounding video context.
const CaptionSystemPrompt = `You are a video frame analyst. You describe single frames from videos so the descriptions can be used for semantic search.

Rules:
- Describe only what is visible in the frame.
- Mention people, objects, actions, text overlays, and setting.
- One short paragraph, no lists, no preamble.
- Do not speculate about what happens before or after the frame.`

// CaptionUserPrompt is the default per-frame instruction. It can be
// overridden through configuration.
const CaptionUserPrompt = `Describe the image briefly.`

// ============================================================================
// Transcription Prompts (Speech To Text)
// ============================================================================

// TranscriptionPrompt biases the speech model toward clean punctuation.
// Passed as the optional prompt field of the transcription request.
const TranscriptionPrompt = `Transcribe the speech accurately with normal punctuation.`
