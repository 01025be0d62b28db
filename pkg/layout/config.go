package layout

// Defaults in mm.
const (
	DefaultWallThickness  = 4.0
	DefaultConnectorWidth = 12.0 // USB-C receptacle opening
)

// Config is the immutable description of one keyboard case.
type Config struct {
	Keys  []Key `json:"keys"`
	Shell Shell `json:"-"`

	WallThickness     float64 `json:"wall_thickness"`
	VerticalClearance float64 `json:"vertical_clearance"`

	// Microcontroller is the board name; empty means no board.
	Microcontroller string `json:"microcontroller,omitempty"`
	// ConnectorIndex is a wall index, or negative to select one automatically.
	ConnectorIndex int     `json:"connector_index"`
	ConnectorWidth float64 `json:"connector_width"`
	// ScrewCount is the total number of case screws; zero picks a count
	// from the case perimeter.
	ScrewCount int `json:"screw_count"`
}

// New returns a Config with a basic shell, automatic connector placement
// and default dimensions.
func New() *Config {
	return &Config{
		Shell:          BasicShell{},
		WallThickness:  DefaultWallThickness,
		ConnectorIndex: -1,
		ConnectorWidth: DefaultConnectorWidth,
	}
}

// ShellOrDefault returns the configured shell, or a BasicShell when unset.
func (c *Config) ShellOrDefault() Shell {
	if c.Shell == nil {
		return BasicShell{}
	}
	return c.Shell
}

// WallThicknessOrDefault returns the wall thickness with zero mapped to the
// default.
func (c *Config) WallThicknessOrDefault() float64 {
	if c.WallThickness <= 0 {
		return DefaultWallThickness
	}
	return c.WallThickness
}

// ConnectorWidthOrDefault returns the connector width with zero mapped to
// the default.
func (c *Config) ConnectorWidthOrDefault() float64 {
	if c.ConnectorWidth <= 0 {
		return DefaultConnectorWidth
	}
	return c.ConnectorWidth
}

// AutoConnector reports whether the connector wall is picked automatically.
func (c *Config) AutoConnector() bool {
	return c.ConnectorIndex < 0
}
