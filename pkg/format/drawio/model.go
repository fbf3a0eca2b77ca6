package drawio

import (
	"bytes"
	"encoding/xml"
	stderrors "errors"
	"io"
	"strings"

	"github.com/matzehuels/diagramkit/pkg/errors"
)

// MxFile is the top-level element of a .drawio document.
type MxFile struct {
	XMLName    xml.Name  `xml:"mxfile"`
	Host       string    `xml:"host,attr,omitempty"`
	Compressed string    `xml:"compressed,attr,omitempty"`
	Diagrams   []Diagram `xml:"diagram"`
}

// Diagram is one page. Its body is either an inline model or, in
// compressed files, the encoded model as text.
type Diagram struct {
	ID    string        `xml:"id,attr,omitempty"`
	Name  string        `xml:"name,attr,omitempty"`
	Model *MxGraphModel `xml:"mxGraphModel,omitempty"`
	Text  string        `xml:",chardata"`
}

// MxGraphModel holds the cell tree of a page.
type MxGraphModel struct {
	XMLName xml.Name `xml:"mxGraphModel"`
	Root    Root     `xml:"root"`
}

// Root is the flat, ordered cell list of a model.
type Root struct {
	Cells []MxCell `xml:"mxCell"`
}

// MxCell is a vertex, an edge, or a structural cell (root and layers).
type MxCell struct {
	ID          string      `xml:"id,attr"`
	Value       string      `xml:"value,attr,omitempty"`
	Style       string      `xml:"style,attr,omitempty"`
	Vertex      string      `xml:"vertex,attr,omitempty"`
	Edge        string      `xml:"edge,attr,omitempty"`
	Parent      string      `xml:"parent,attr,omitempty"`
	Source      string      `xml:"source,attr,omitempty"`
	Target      string      `xml:"target,attr,omitempty"`
	Connectable string      `xml:"connectable,attr,omitempty"`
	Geometry    *MxGeometry `xml:"mxGeometry,omitempty"`
}

// IsVertex reports whether the cell is a vertex.
func (c MxCell) IsVertex() bool { return c.Vertex == "1" }

// IsEdge reports whether the cell is an edge.
func (c MxCell) IsEdge() bool { return c.Edge == "1" }

// MxGeometry positions a cell relative to its parent.
type MxGeometry struct {
	X        float64   `xml:"x,attr,omitempty"`
	Y        float64   `xml:"y,attr,omitempty"`
	Width    float64   `xml:"width,attr,omitempty"`
	Height   float64   `xml:"height,attr,omitempty"`
	Relative string    `xml:"relative,attr,omitempty"`
	As       string    `xml:"as,attr,omitempty"`
	Terminal []MxPoint `xml:"mxPoint,omitempty"`
	Array    *MxArray  `xml:"Array,omitempty"`
}

// Points returns the edge waypoints.
func (g *MxGeometry) Points() []MxPoint {
	if g == nil || g.Array == nil {
		return nil
	}
	return g.Array.Points
}

// MxArray is an <Array as="points"> list.
type MxArray struct {
	As     string    `xml:"as,attr,omitempty"`
	Points []MxPoint `xml:"mxPoint"`
}

// MxPoint is a coordinate; As names its role (sourcePoint, targetPoint).
type MxPoint struct {
	X  float64 `xml:"x,attr"`
	Y  float64 `xml:"y,attr"`
	As string  `xml:"as,attr,omitempty"`
}

// userObject wraps a cell in documents that attach custom properties.
// The wrapper carries the id and the label; the cell inside has neither.
type userObject struct {
	ID    string `xml:"id,attr"`
	Label string `xml:"label,attr"`
	Cell  MxCell `xml:"mxCell"`
}

// UnmarshalXML reads mxCell children in document order and unwraps
// UserObject and object wrappers.
func (r *Root) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "mxCell":
				var c MxCell
				if err := d.DecodeElement(&c, &t); err != nil {
					return err
				}
				r.Cells = append(r.Cells, c)
			case "UserObject", "object":
				var u userObject
				if err := d.DecodeElement(&u, &t); err != nil {
					return err
				}
				c := u.Cell
				c.ID = u.ID
				c.Value = u.Label
				r.Cells = append(r.Cells, c)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// =============================================================================
// Document decoding
// =============================================================================

// ParseModel decodes a drawio document into its first page's model. It
// accepts an <mxfile> (plain or compressed) or a bare <mxGraphModel>.
func ParseModel(data []byte) (*MxGraphModel, error) {
	root, err := rootElement(data)
	if err != nil {
		return nil, err
	}

	switch root {
	case "mxGraphModel":
		return decodeModel(data)
	case "mxfile":
	default:
		return nil, errors.NewParseError(formatName, errors.UnexpectedToken,
			"root element <%s>, expected <mxfile> or <mxGraphModel>", root)
	}

	var file MxFile
	if err := xml.Unmarshal(data, &file); err != nil {
		return nil, xmlError(err)
	}
	if len(file.Diagrams) == 0 {
		return nil, errors.NewParseError(formatName, errors.Truncated, "document has no <diagram>")
	}

	d := file.Diagrams[0]
	if d.Model != nil {
		return d.Model, nil
	}
	body := strings.TrimSpace(d.Text)
	if body == "" {
		return nil, errors.NewParseError(formatName, errors.Truncated, "diagram %q is empty", d.Name)
	}
	inner, err := Decompress(body)
	if err != nil {
		return nil, err
	}
	return decodeModel([]byte(inner))
}

func decodeModel(data []byte) (*MxGraphModel, error) {
	var m MxGraphModel
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, xmlError(err)
	}
	return &m, nil
}

// rootElement returns the local name of the first element in data.
func rootElement(data []byte) (string, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := d.Token()
		if err != nil {
			return "", xmlError(err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

func xmlError(err error) error {
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
		return &errors.ParseError{Kind: errors.Truncated, Format: formatName, Msg: "unexpected end of document"}
	}
	var syn *xml.SyntaxError
	if stderrors.As(err, &syn) {
		kind := errors.Syntax
		if strings.Contains(syn.Msg, "unexpected EOF") {
			kind = errors.Truncated
		}
		return &errors.ParseError{
			Kind:   kind,
			Format: formatName,
			Pos:    &errors.Position{Line: syn.Line},
			Msg:    syn.Msg,
		}
	}
	return &errors.ParseError{Kind: errors.Syntax, Format: formatName, Cause: err}
}
