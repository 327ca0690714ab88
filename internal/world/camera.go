package world

const (
	MinZoom = 0.25
	MaxZoom = 4
)

// Camera is the saved view position in tile units.
type Camera struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// CenteredCamera looks at the middle of m at zoom 1.
func CenteredCamera(m *Map) Camera {
	return Camera{X: float64(m.Width) / 2, Y: float64(m.Height) / 2, Zoom: 1}
}

// Clamp keeps the camera over the map and the zoom in range.
func (c *Camera) Clamp(m *Map) {
	c.X = min(max(c.X, 0), float64(m.Width))
	c.Y = min(max(c.Y, 0), float64(m.Height))
	c.Zoom = min(max(c.Zoom, MinZoom), MaxZoom)
}
