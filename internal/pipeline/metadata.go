package pipeline

// RunMetadata is the traceable run-record of one job. Its JSON field set
// and order are stable for downstream automation; do not reorder.
type RunMetadata struct {
	URL                string  `json:"url"`
	ExecutionTS        string  `json:"execution_ts"`
	VideoID            string  `json:"video_id"`
	OriginalVideoTitle string  `json:"original_video_title"`
	AudioFilename      string  `json:"audio_filename"`
	JSONFilename       string  `json:"json_filename"`
	UsedCustomFilename bool    `json:"used_custom_filename"`
	UsedTrim           bool    `json:"used_trim"`
	StartInput         string  `json:"start_input"`
	EndInput           string  `json:"end_input"`
	SpeakersCount      *int    `json:"speakers_count"`
	Language           *string `json:"language"`
	LanguageCode       *string `json:"language_code"`
	Success            bool    `json:"success"`
	Error              *string `json:"error"`
	AudioSizeBytes     int     `json:"audio_size_bytes"`
	Backend            string  `json:"backend"`
}

// Result is what one job invocation hands back: the record, the encoded
// audio, and the record's canonical JSON bytes.
type Result struct {
	Metadata     RunMetadata
	Audio        []byte
	MetadataJSON []byte
}
