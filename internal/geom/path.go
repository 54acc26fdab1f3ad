package geom

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Path operations, matching Canvas2D / SVG command letters.
const (
	OpMove  = "M"
	OpLine  = "L"
	OpCubic = "C"
	OpClose = "Z"
)

// PathCommand is a single path instruction. Pts holds one point for M and L,
// three (control 1, control 2, end) for C, and none for Z.
type PathCommand struct {
	Op  string
	Pts []Point
}

// MarshalJSON encodes the command as ["C", x1, y1, x2, y2, x, y] like a Canvas2D call.
func (c PathCommand) MarshalJSON() ([]byte, error) {
	arr := make([]any, 0, 1+2*len(c.Pts))
	arr = append(arr, c.Op)
	for _, p := range c.Pts {
		arr = append(arr, p.X, p.Y)
	}
	return json.Marshal(arr)
}

// UnmarshalJSON decodes the array form produced by MarshalJSON.
func (c *PathCommand) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) == 0 {
		*c = PathCommand{}
		return nil
	}
	var op string
	if err := json.Unmarshal(arr[0], &op); err != nil {
		return err
	}
	nums := make([]float64, 0, len(arr)-1)
	for _, raw := range arr[1:] {
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		nums = append(nums, v)
	}
	pts := make([]Point, 0, len(nums)/2)
	for i := 0; i+1 < len(nums); i += 2 {
		pts = append(pts, Point{nums[i], nums[i+1]})
	}
	*c = PathCommand{Op: op, Pts: pts}
	return nil
}

// Polyline joins pts with straight lines. Used for live draft previews.
func Polyline(pts []Point) []PathCommand {
	if len(pts) == 0 {
		return nil
	}
	cmds := make([]PathCommand, 0, len(pts))
	cmds = append(cmds, PathCommand{Op: OpMove, Pts: []Point{pts[0]}})
	for _, p := range pts[1:] {
		cmds = append(cmds, PathCommand{Op: OpLine, Pts: []Point{p}})
	}
	return cmds
}

// FormatPathData renders commands as an SVG path "d" attribute.
func FormatPathData(cmds []PathCommand) string {
	var sb strings.Builder
	for i, c := range cmds {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(c.Op)
		for _, p := range c.Pts {
			sb.WriteByte(' ')
			sb.WriteString(formatNum(p.X))
			sb.WriteByte(' ')
			sb.WriteString(formatNum(p.Y))
		}
	}
	return sb.String()
}

func formatNum(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
