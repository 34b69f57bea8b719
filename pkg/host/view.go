package host

import (
	"reflect"

	"github.com/paulmach/orb"
)

// MouseButton identifies a mouse button.
type MouseButton int

const (
	ButtonLeft MouseButton = iota + 1
	ButtonMiddle
	ButtonRight
)

// MouseEvent is a click on the map view in screen coordinates.
type MouseEvent struct {
	X, Y   int
	Button MouseButton
}

// MouseListener receives clicks on the map view.
type MouseListener interface {
	MouseClicked(e MouseEvent)
}

// MapView is the editor map.
type MapView interface {
	// LatLon converts a screen position to a [lon, lat] location.
	LatLon(x, y int) orb.Point
	// ZoomTo shows bound.
	ZoomTo(bound orb.Bound)
	AddMouseListener(l MouseListener)
	RemoveMouseListener(l MouseListener)
	MouseListeners() []MouseListener
	Repaint()
}

// ProgressMonitor reports long running work.
type ProgressMonitor interface {
	SetCustomText(text string)
}

// NopProgress discards progress reports.
type NopProgress struct{}

func (NopProgress) SetCustomText(string) {}

// ProgressFunc adapts a function to a ProgressMonitor.
type ProgressFunc func(text string)

func (f ProgressFunc) SetCustomText(text string) { f(text) }

// MemoryMapView is a MapView without a screen. The viewport is mapped
// linearly onto Width x Height pixels, y growing downwards.
type MemoryMapView struct {
	Width, Height int
	Viewport      orb.Bound

	listeners []MouseListener
	repaints  int
}

// NewMemoryMapView creates a map view of the given size showing viewport.
func NewMemoryMapView(width, height int, viewport orb.Bound) *MemoryMapView {
	return &MemoryMapView{Width: width, Height: height, Viewport: viewport}
}

func (v *MemoryMapView) LatLon(x, y int) orb.Point {
	lon := v.Viewport.Min.Lon() + float64(x)/float64(v.Width)*(v.Viewport.Max.Lon()-v.Viewport.Min.Lon())
	lat := v.Viewport.Max.Lat() - float64(y)/float64(v.Height)*(v.Viewport.Max.Lat()-v.Viewport.Min.Lat())
	return orb.Point{lon, lat}
}

// Pixel is the inverse of LatLon, rounded down.
func (v *MemoryMapView) Pixel(p orb.Point) (x, y int) {
	x = int((p.Lon() - v.Viewport.Min.Lon()) / (v.Viewport.Max.Lon() - v.Viewport.Min.Lon()) * float64(v.Width))
	y = int((v.Viewport.Max.Lat() - p.Lat()) / (v.Viewport.Max.Lat() - v.Viewport.Min.Lat()) * float64(v.Height))
	return x, y
}

func (v *MemoryMapView) ZoomTo(bound orb.Bound) {
	v.Viewport = bound
}

func (v *MemoryMapView) AddMouseListener(l MouseListener) {
	v.listeners = append(v.listeners, l)
}

func (v *MemoryMapView) RemoveMouseListener(l MouseListener) {
	for i, existing := range v.listeners {
		if sameListener(existing, l) {
			v.listeners = append(v.listeners[:i], v.listeners[i+1:]...)
			return
		}
	}
}

func (v *MemoryMapView) MouseListeners() []MouseListener {
	out := make([]MouseListener, len(v.listeners))
	copy(out, v.listeners)
	return out
}

func (v *MemoryMapView) Repaint() { v.repaints++ }

// Repaints returns how often Repaint was called.
func (v *MemoryMapView) Repaints() int { return v.repaints }

// Click dispatches a left click at the screen position to every listener.
func (v *MemoryMapView) Click(x, y int) {
	e := MouseEvent{X: x, Y: y, Button: ButtonLeft}
	for _, l := range v.MouseListeners() {
		l.MouseClicked(e)
	}
}

// sameListener compares listeners without panicking on uncomparable
// dynamic types such as funcs.
func sameListener(a, b MouseListener) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !reflect.TypeOf(a).Comparable() {
		return false
	}
	return a == b
}
