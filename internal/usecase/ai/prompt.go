package ai

import (
	"fmt"

	"github.com/johnquangdev/lumina/internal/domain/entities"
)

// AnalysisInstruction is the fixed instruction sent with every request
const AnalysisInstruction = `Analyze this meeting content deeply. Provide a professional summary, key takeaways, decisions, and action items.
Crucially, look for "non-obvious" insights: identify hidden tensions, unspoken assumptions, power dynamics, creative breakthroughs that weren't fully explored, and strategic alignment with broader goals.
For the sentiment timeline, map the meeting's emotional flow over 5-8 key segments, scoring each from -1 (negative) to 1 (positive).
For deep insights, focus on the psychological and organizational layers that aren't visible on the surface.
Respond only with a JSON document matching the provided schema.`

// TranscriptLabel prefixes transcript text in the prompt
const TranscriptLabel = "Meeting Transcript: "

// ResponseMIMEType is the structured output format requested from providers
const ResponseMIMEType = "application/json"

// BuildGenerationRequest turns a normalized AnalysisRequest into the
// provider-facing request with the instruction and response schema attached
func BuildGenerationRequest(req *entities.AnalysisRequest) (*entities.GenerationRequest, error) {
	if req == nil {
		return nil, entities.NewValidationError("analysis request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	gen := &entities.GenerationRequest{
		Instruction:      AnalysisInstruction,
		ResponseMIMEType: ResponseMIMEType,
		Schema:           entities.MeetingAnalysisSchema(),
	}

	switch req.Kind {
	case entities.RequestKindText:
		gen.Transcript = TranscriptLabel + req.Content
	case entities.RequestKindAudio:
		audio, err := req.Audio()
		if err != nil {
			return nil, entities.NewValidationError(fmt.Sprintf("audio payload is not valid base64: %v", err))
		}
		gen.Audio = audio
		gen.AudioMIMEType = req.MIMEType
	}

	return gen, nil
}
