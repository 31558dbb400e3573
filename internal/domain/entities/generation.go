package entities

// GenerationRequest is the provider-facing form of an analysis request
type GenerationRequest struct {
	Instruction      string
	Transcript       string
	Audio            []byte
	AudioMIMEType    string
	ResponseMIMEType string
	Schema           *Schema
}

// HasAudio reports whether the request carries an inline recording
func (r *GenerationRequest) HasAudio() bool {
	return len(r.Audio) > 0
}
