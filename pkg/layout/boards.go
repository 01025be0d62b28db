package layout

// BoardSize is the outline of a microcontroller board in mm. Length runs
// away from the connector.
type BoardSize struct {
	Width  float64
	Length float64
}

var boards = map[string]BoardSize{
	"pi-pico":            {Width: 21, Length: 51},
	"promicro":           {Width: 18, Length: 33},
	"promicro-usb-c":     {Width: 18, Length: 34},
	"nrfmicro":           {Width: 18, Length: 33},
	"itsybitsy-adafruit": {Width: 18, Length: 36},
	"kb2040-adafruit":    {Width: 18, Length: 33},
	"rp2040-black-usb-c": {Width: 18, Length: 30},
	"weact-blackpill":    {Width: 21, Length: 53},
}

// DefaultBoard is the holder size used when no board, or an unknown board,
// is configured.
var DefaultBoard = BoardSize{Width: 18, Length: 33}

// Board returns the outline of the named board. ok is false when the name
// is empty or not known.
func Board(name string) (size BoardSize, ok bool) {
	size, ok = boards[name]
	if !ok {
		return DefaultBoard, false
	}
	return size, true
}
