// Package render draws the verification figure reviewers look at before
// accepting a pair of poses.
package render

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/felixgeelhaar/exlogic/internal/biomech"
	"github.com/felixgeelhaar/exlogic/internal/fsutil"
	"github.com/felixgeelhaar/exlogic/internal/landmark"
	"github.com/felixgeelhaar/exlogic/internal/validate"
)

// FileName is the figure written into each exercise directory.
const FileName = "verification.png"

// MinDrawVisibility hides joints the model is unsure about.
const MinDrawVisibility = 0.4

// Pose is one side of the figure.
type Pose struct {
	Landmarks landmark.Set
	Snapshot  biomech.Snapshot
	Result    validate.Result
}

// View is everything drawn for one exercise.
type View struct {
	Label string
	Start Pose
	End   Pose
}

// Renderer writes a verification figure to path.
type Renderer interface {
	Render(path string, v View) error
}

// Nop draws nothing.
type Nop struct{}

func (Nop) Render(string, View) error { return nil }

var (
	boneColor  = color.RGBA{G: 160, A: 255}
	jointColor = color.RGBA{R: 200, G: 30, B: 30, A: 255}
)

// PlotRenderer draws start and end skeletons side by side with gonum/plot.
type PlotRenderer struct {
	Width  vg.Length
	Height vg.Length
}

// NewPlotRenderer returns a renderer producing a 12x6 inch figure.
func NewPlotRenderer() *PlotRenderer {
	return &PlotRenderer{Width: 12 * vg.Inch, Height: 6 * vg.Inch}
}

// Render implements Renderer. The file is replaced atomically.
func (r *PlotRenderer) Render(path string, v View) error {
	start, err := skeletonPlot("Start pose", v.Start)
	if err != nil {
		return err
	}
	end, err := skeletonPlot("End pose", v.End)
	if err != nil {
		return err
	}

	img := vgimg.New(r.Width, r.Height)
	dc := draw.New(img)
	pad := 4 * vg.Millimeter
	tiles := draw.Tiles{
		Rows: 1, Cols: 2,
		PadX: pad, PadY: pad,
		PadTop: pad, PadBottom: pad, PadLeft: pad, PadRight: pad,
	}
	plots := [][]*plot.Plot{{start, end}}
	canvases := plot.Align(plots, tiles, dc)
	for j, p := range plots[0] {
		p.Draw(canvases[0][j])
	}

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return fmt.Errorf("encode figure: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write figure: %w", err)
	}
	return nil
}

func skeletonPlot(title string, pose Pose) (*plot.Plot, error) {
	p := plot.New()
	verdict := "PASS"
	if !pose.Result.OK {
		verdict = fmt.Sprintf("FAIL (%d issues)", len(pose.Result.Issues))
	}
	p.Title.Text = fmt.Sprintf("%s: %s", title, verdict)
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.HideAxes()
	if len(pose.Result.Issues) > 0 {
		p.X.Label.Text = pose.Result.Issues[0].Message
	}

	set := &pose.Landmarks
	for _, c := range landmark.Connections {
		a, b := set.At(c.From), set.At(c.To)
		if a.Visibility < MinDrawVisibility || b.Visibility < MinDrawVisibility {
			continue
		}
		line, err := plotter.NewLine(plotter.XYs{toXY(a), toXY(b)})
		if err != nil {
			return nil, fmt.Errorf("create bone line: %w", err)
		}
		line.LineStyle.Color = boneColor
		line.LineStyle.Width = vg.Points(2)
		p.Add(line)
	}

	var joints plotter.XYs
	for i := range landmark.Count {
		lm := set.At(landmark.Index(i))
		if lm.Visibility < MinDrawVisibility {
			continue
		}
		joints = append(joints, toXY(lm))
	}
	if len(joints) > 0 {
		scatter, err := plotter.NewScatter(joints)
		if err != nil {
			return nil, fmt.Errorf("create joint scatter: %w", err)
		}
		scatter.GlyphStyle.Color = jointColor
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
	}

	if v, ok := pose.Snapshot.Angles["elbow_left"]; ok {
		p.Legend.Add(fmt.Sprintf("elbow L %.1f°", v))
	}
	if v, ok := pose.Snapshot.Angles["knee_left"]; ok {
		p.Legend.Add(fmt.Sprintf("knee L %.1f°", v))
	}
	p.Legend.Top = true
	p.Legend.Left = false
	return p, nil
}

// toXY flips image coordinates so the head is drawn at the top.
func toXY(lm landmark.Landmark) plotter.XY {
	return plotter.XY{X: lm.X, Y: 1 - lm.Y}
}
