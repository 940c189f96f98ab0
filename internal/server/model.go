package server

type ConvertRequest struct {
	Chart    string `json:"chart"`
	Dialect  string `json:"dialect"`
	Encoding string `json:"encoding"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}

type TempoPoint struct {
	Position float64 `json:"position"`
	Seconds  float64 `json:"seconds"`
	BPM      float64 `json:"bpm"`
}

type SignaturePoint struct {
	Measure    int     `json:"measure"`
	Seconds    float64 `json:"seconds"`
	Multiplier float64 `json:"multiplier"`
}

type SamplePlacement struct {
	Position float64 `json:"position"`
	Length   float64 `json:"length"`
	Channel  string  `json:"channel"`
	Group    string  `json:"group,omitempty"`
}

type TrackTimeline struct {
	Code    string            `json:"code"`
	Name    string            `json:"name"`
	Samples []SamplePlacement `json:"samples"`
}

type TimelineResponse struct {
	InitialBPM float64          `json:"initial_bpm"`
	Tempo      []TempoPoint     `json:"tempo"`
	Signatures []SignaturePoint `json:"signatures"`
	Tracks     []TrackTimeline  `json:"tracks"`
	Warnings   []string         `json:"warnings"`
}
