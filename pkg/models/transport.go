package models

// CaptureRequest optionally overrides the configured capture options
type CaptureRequest struct {
	Quality     *float64 `json:"quality,omitempty" binding:"omitempty,gt=0,lte=1"`
	AspectRatio string   `json:"aspect_ratio,omitempty"`
}

// ErrorResponse represents an error response. Alert is the user-facing text
// and Screen the state to render after the failure.
type ErrorResponse struct {
	Error   string  `json:"error"`
	Message string  `json:"message,omitempty"`
	Alert   string  `json:"alert,omitempty"`
	Screen  *Screen `json:"screen,omitempty"`
}

// Screen is the rendering-agnostic output of the presenter.
type Screen struct {
	Variant  string      `json:"variant"`
	Mode     string      `json:"mode"`
	Message  string      `json:"message,omitempty"`
	Actions  []string    `json:"actions"`
	Facing   string      `json:"facing,omitempty"`
	Photo    *PhotoView  `json:"photo,omitempty"`
	Loading  bool        `json:"loading"`
	Analysis string      `json:"analysis,omitempty"`
	Labels   []LabelView `json:"labels,omitempty"`
	Alert    string      `json:"alert,omitempty"`
}

// PhotoView is the preview of the captured photo
type PhotoView struct {
	ID      string `json:"id"`
	Ref     string `json:"ref"`
	TakenAt string `json:"taken_at"`
}

// LabelView is one rendered label, Percent being the rounded score ("98%").
type LabelView struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
	Percent     string  `json:"percent"`
}

// MetricsResponse is served on the metrics endpoint
type MetricsResponse struct {
	Metrics map[string]interface{} `json:"metrics"`
}
