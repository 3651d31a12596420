package mcp

// Domain payload shapes returned by the PathView slide tools. These mirror
// the structured objects the server embeds in tool results; callers decode
// into them with mcpclient.Unmarshal.

// ViewportPosition is a viewport position in slide coordinates.
type ViewportPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ViewportInfo is the viewer's current viewport state.
type ViewportInfo struct {
	Position ViewportPosition `json:"position"`
	Zoom     float64          `json:"zoom"`
}

// SlideInfo is the metadata returned by load_slide.
type SlideInfo struct {
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Levels   int           `json:"levels"`
	Path     string        `json:"path"`
	Viewport *ViewportInfo `json:"viewport,omitempty"`
}

// PolygonInfo is the summary returned by polygon loading tools.
type PolygonInfo struct {
	Count   int      `json:"count"`
	Classes []string `json:"classes"`
}
