package excalidraw

import (
	"encoding/json"
	"strconv"
)

// Scene is an .excalidraw document.
type Scene struct {
	Type     string          `json:"type"`
	Version  int             `json:"version"`
	Source   string          `json:"source,omitempty"`
	Elements []Element       `json:"elements"`
	AppState AppState        `json:"appState"`
	Files    map[string]File `json:"files,omitempty"`
}

// AppState holds the editor settings saved with a scene. Only the fields
// diagramkit reads or writes are modeled.
type AppState struct {
	ViewBackgroundColor string `json:"viewBackgroundColor,omitempty"`
	GridSize            *int   `json:"gridSize"`
}

// File is an embedded binary referenced by image elements.
type File struct {
	ID       string `json:"id"`
	MimeType string `json:"mimeType"`
	DataURL  string `json:"dataURL"`
	Created  int64  `json:"created,omitempty"`
}

// Element is any scene element. Fields that only apply to some element
// types are left zero for the others.
type Element struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	X               float64        `json:"x"`
	Y               float64        `json:"y"`
	Width           float64        `json:"width"`
	Height          float64        `json:"height"`
	Angle           float64        `json:"angle"`
	StrokeColor     string         `json:"strokeColor,omitempty"`
	BackgroundColor string         `json:"backgroundColor,omitempty"`
	FillStyle       string         `json:"fillStyle,omitempty"`
	StrokeWidth     float64        `json:"strokeWidth,omitempty"`
	StrokeStyle     string         `json:"strokeStyle,omitempty"`
	Roughness       float64        `json:"roughness"`
	Opacity         float64        `json:"opacity"`
	GroupIDs        []string       `json:"groupIds"`
	FrameID         *string        `json:"frameId"`
	Roundness       *Roundness     `json:"roundness"`
	BoundElements   []BoundElement `json:"boundElements"`
	Seed            int64          `json:"seed"`
	Version         int            `json:"version"`
	VersionNonce    int64          `json:"versionNonce"`
	IsDeleted       bool           `json:"isDeleted"`
	Locked          bool           `json:"locked"`

	// frame
	Name *string `json:"name,omitempty"`

	// text
	Text          string  `json:"text,omitempty"`
	OriginalText  string  `json:"originalText,omitempty"`
	FontSize      float64 `json:"fontSize,omitempty"`
	FontFamily    int     `json:"fontFamily,omitempty"`
	TextAlign     string  `json:"textAlign,omitempty"`
	VerticalAlign string  `json:"verticalAlign,omitempty"`
	ContainerID   *string `json:"containerId,omitempty"`
	LineHeight    float64 `json:"lineHeight,omitempty"`

	// arrow, line
	Points         []Point  `json:"points,omitempty"`
	StartBinding   *Binding `json:"startBinding,omitempty"`
	EndBinding     *Binding `json:"endBinding,omitempty"`
	StartArrowhead *string  `json:"startArrowhead,omitempty"`
	EndArrowhead   *string  `json:"endArrowhead,omitempty"`

	// image
	FileID *string `json:"fileId,omitempty"`
	Status string  `json:"status,omitempty"`
}

// Roundness marks rounded corners. Type 3 is the adaptive radius used for
// rectangles.
type Roundness struct {
	Type int `json:"type"`
}

// BoundElement is a back-reference from a shape to a text or arrow bound
// to it.
type BoundElement struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Binding attaches one end of a linear element to a shape.
type Binding struct {
	ElementID string  `json:"elementId"`
	Focus     float64 `json:"focus"`
	Gap       float64 `json:"gap"`
}

// Point is a linear element vertex relative to the element's (x, y),
// encoded as a two-element array.
type Point struct{ X, Y float64 }

// MarshalJSON writes the point as [x, y].
func (p Point) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, 32)
	b = append(b, '[')
	b = strconv.AppendFloat(b, p.X, 'f', -1, 64)
	b = append(b, ',')
	b = strconv.AppendFloat(b, p.Y, 'f', -1, 64)
	return append(b, ']'), nil
}

// UnmarshalJSON reads a point from [x, y].
func (p *Point) UnmarshalJSON(data []byte) error {
	var xy [2]float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// Element types.
const (
	TypeRectangle = "rectangle"
	TypeDiamond   = "diamond"
	TypeEllipse   = "ellipse"
	TypeText      = "text"
	TypeImage     = "image"
	TypeFrame     = "frame"
	TypeArrow     = "arrow"
	TypeLine      = "line"
)

func (e Element) linear() bool { return e.Type == TypeArrow || e.Type == TypeLine }

func (e Element) container() string {
	if e.ContainerID == nil {
		return ""
	}
	return *e.ContainerID
}

func (e Element) frame() string {
	if e.FrameID == nil {
		return ""
	}
	return *e.FrameID
}

func ptr[T any](v T) *T { return &v }
