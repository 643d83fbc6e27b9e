package geometry

import (
	"strings"

	"github.com/mitchellh/mapstructure"

	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
)

// Corner shapes for node images.
const (
	CornerCircle  = "CIRCLE"
	CornerRounded = "ROUNDED"
	CornerSquare  = "SQUARE"
)

// Fallbacks used when a resolved width is zero.
const (
	DefaultStrokeWidth    = 3.0
	DefaultConnectorWidth = 2.0
)

// Style holds the chart-wide defaults every node falls back to. The zero
// value is not useful; start from [DefaultStyle].
type Style struct {
	Width           float64 `toml:"width"`
	Height          float64 `toml:"height"`
	BorderWidth     float64 `toml:"border_width"`
	BorderRadius    float64 `toml:"border_radius"`
	BorderColor     Color   `toml:"border_color"`
	BackgroundColor Color   `toml:"background_color"`

	ConnectorLineColor string  `toml:"connector_line_color"`
	ConnectorLineWidth float64 `toml:"connector_line_width"`
	DashArray          string  `toml:"dash_array"`

	Image ImageStyle `toml:"image"`
	Icon  IconStyle  `toml:"icon"`

	// StrokeWidth replaces a zero border width.
	StrokeWidth float64 `toml:"stroke_width"`
	// TextFill colours button glyphs, NodeTextFill the subsidiary counters.
	TextFill     string `toml:"text_fill"`
	NodeTextFill string `toml:"node_text_fill"`
	Font         string `toml:"font"`

	// ShadowFilterID names the drop shadow filter shared by all images.
	// Set by the chart; empty disables shadows.
	ShadowFilterID string `toml:"-"`
}

// ImageStyle describes the image badge drawn on a node.
type ImageStyle struct {
	URL                string  `toml:"url"`
	Width              float64 `toml:"width"`
	Height             float64 `toml:"height"`
	CenterTopDistance  float64 `toml:"center_top_distance"`
	CenterLeftDistance float64 `toml:"center_left_distance"`
	CornerShape        string  `toml:"corner_shape"`
	Shadow             bool    `toml:"shadow"`
	BorderWidth        float64 `toml:"border_width"`
	BorderColor        Color   `toml:"border_color"`
}

// IconStyle describes the icon next to the subsidiary counters.
type IconStyle struct {
	URL  string  `toml:"url"`
	Size float64 `toml:"size"`
}

// DefaultStyle returns the card defaults of the holding company chart.
func DefaultStyle() Style {
	return Style{
		Width:              324,
		Height:             132,
		BorderWidth:        1,
		BorderRadius:       5,
		BorderColor:        RGBA(0, 0, 0, 0.1),
		BackgroundColor:    RGBA(255, 255, 255, 1),
		ConnectorLineColor: "#d8d7d7",
		ConnectorLineWidth: 3,
		Image: ImageStyle{
			Width:       94,
			Height:      60,
			CornerShape: CornerRounded,
			BorderWidth: 1,
			BorderColor: RGBA(0, 0, 0, 0.15),
		},
		Icon:         IconStyle{Size: 24},
		StrokeWidth:  DefaultStrokeWidth,
		TextFill:     "#2C3E50",
		NodeTextFill: "black",
		Font:         "'Source Sans Pro', Arial, Helvetica, sans-serif",
	}
}

// payload is the typed view of the styling fields of a record payload.
// Pointer fields distinguish "absent" from "zero".
type payload struct {
	Width              *float64      `mapstructure:"width"`
	Height             *float64      `mapstructure:"height"`
	BorderWidth        *float64      `mapstructure:"borderWidth"`
	BorderRadius       *float64      `mapstructure:"borderRadius"`
	BorderColor        *colorPayload `mapstructure:"borderColor"`
	BackgroundColor    *colorPayload `mapstructure:"backgroundColor"`
	ConnectorLineColor *string       `mapstructure:"connectorLineColor"`
	ConnectorLineWidth *float64      `mapstructure:"connectorLineWidth"`
	DashArray          *string       `mapstructure:"dashArray"`
	NodeImage          *imagePayload `mapstructure:"nodeImage"`
	NodeIcon           *iconPayload  `mapstructure:"nodeIcon"`
}

type imagePayload struct {
	URL                *string       `mapstructure:"url"`
	Width              *float64      `mapstructure:"width"`
	Height             *float64      `mapstructure:"height"`
	CenterTopDistance  *float64      `mapstructure:"centerTopDistance"`
	CenterLeftDistance *float64      `mapstructure:"centerLeftDistance"`
	CornerShape        *string       `mapstructure:"cornerShape"`
	Shadow             *bool         `mapstructure:"shadow"`
	BorderWidth        *float64      `mapstructure:"borderWidth"`
	BorderColor        *colorPayload `mapstructure:"borderColor"`
}

type iconPayload struct {
	Icon *string  `mapstructure:"icon"`
	Size *float64 `mapstructure:"size"`
}

// decodePayload decodes the styling subset of a payload. Fields that fail to
// decode are left unset; the decode error is returned as a style warning.
func decodePayload(id string, m map[string]any) (payload, error) {
	var p payload
	if len(m) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		ZeroFields:       false,
	})
	if err != nil {
		return p, orgerrors.Wrap(orgerrors.ErrCodeInternal, err, "style decoder")
	}
	if err := dec.Decode(m); err != nil {
		return p, orgerrors.Wrap(orgerrors.ErrCodeInvalidStyleValue, err, "node %q: undecodable style fields", id)
	}
	return p, nil
}

// Resolve merges a payload over defaults and returns the node's effective
// style together with any style warnings.
func Resolve(id string, m map[string]any, defaults Style) (Style, []error) {
	s := defaults
	var warnings []error

	p, err := decodePayload(id, m)
	if err != nil {
		warnings = append(warnings, err)
	}

	setFloat(&s.Width, p.Width)
	setFloat(&s.Height, p.Height)
	setFloat(&s.BorderWidth, p.BorderWidth)
	setFloat(&s.BorderRadius, p.BorderRadius)
	setColor(&s.BorderColor, p.BorderColor)
	setColor(&s.BackgroundColor, p.BackgroundColor)
	setString(&s.ConnectorLineColor, p.ConnectorLineColor)
	setFloat(&s.ConnectorLineWidth, p.ConnectorLineWidth)
	setString(&s.DashArray, p.DashArray)

	if img := p.NodeImage; img != nil {
		setString(&s.Image.URL, img.URL)
		setFloat(&s.Image.Width, img.Width)
		setFloat(&s.Image.Height, img.Height)
		setFloat(&s.Image.CenterTopDistance, img.CenterTopDistance)
		setFloat(&s.Image.CenterLeftDistance, img.CenterLeftDistance)
		setString(&s.Image.CornerShape, img.CornerShape)
		if img.Shadow != nil {
			s.Image.Shadow = *img.Shadow
		}
		setFloat(&s.Image.BorderWidth, img.BorderWidth)
		setColor(&s.Image.BorderColor, img.BorderColor)
	}
	if icon := p.NodeIcon; icon != nil {
		setString(&s.Icon.URL, icon.Icon)
		setFloat(&s.Icon.Size, icon.Size)
	}

	if s.Width < 0 || s.Height < 0 {
		warnings = append(warnings, orgerrors.New(orgerrors.ErrCodeInvalidStyleValue,
			"node %q: negative size %gx%g, using defaults", id, s.Width, s.Height))
		s.Width, s.Height = defaults.Width, defaults.Height
	}

	return s, warnings
}

// NodeSize returns the box size of a node without resolving the full style.
func NodeSize(id string, m map[string]any, defaults Style) (w, h float64) {
	s, _ := Resolve(id, m, defaults)
	return s.Width, s.Height
}

// CornerRadius resolves a corner shape to an image corner radius. ok is
// false for unrecognised shapes, which are drawn square.
func CornerRadius(shape string, imageWidth, imageHeight float64) (radius float64, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(shape)) {
	case CornerCircle:
		return max(imageWidth, imageHeight), true
	case CornerRounded:
		return min(imageWidth, imageHeight) / 6, true
	case CornerSquare, "":
		return 0, true
	default:
		return 0, false
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setColor(dst *Color, v *colorPayload) {
	if v != nil {
		*dst = v.color()
	}
}
