package viz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/dynamo"
	"github.com/san-kum/chemsim/internal/physics"
)

func TestCanvas_SetAndUnset(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	assert.True(t, c.Lit(0, 0))
	assert.True(t, c.Lit(3, 3))
	assert.Equal(t, rune(0x2801), c.Grid[0][0])
	assert.Equal(t, rune(0x2880), c.Grid[0][1])

	c.Unset(0, 0)
	assert.False(t, c.Lit(0, 0))
	assert.Equal(t, rune(blank), c.Grid[0][0])

	// Out of range writes are dropped.
	c.Set(-1, 0)
	c.Set(100, 100)
	assert.False(t, c.Lit(100, 100))
}

func TestCanvas_DrawLineEndpoints(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(1, 1, 17, 13)
	assert.True(t, c.Lit(1, 1))
	assert.True(t, c.Lit(17, 13))
}

func TestCanvas_RenderGroupsTags(t *testing.T) {
	c := NewCanvas(3, 1)
	c.FillDisc(0, 1, 0, ElementTag(chem.O))
	c.FillDisc(2, 1, 0, ElementTag(chem.O))
	c.FillDisc(4, 1, 0, ElementTag(chem.H))

	var runs []string
	out := c.Render(func(tag Tag, s string) string {
		runs = append(runs, s)
		return s
	})
	assert.Equal(t, c.String(), out)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, len([]rune(runs[0])))
}

func TestCamera_ProjectCentreAndEdge(t *testing.T) {
	cam := NewCamera(10)
	cam.Distance = 0

	x, y, persp, _, ok := cam.Project(dynamo.Vec3{}, 80, 40)
	require.True(t, ok)
	assert.Equal(t, 40, x)
	assert.Equal(t, 20, y)
	assert.Equal(t, 1.0, persp)

	// +Y is up on screen and the extent fills the short side.
	_, y, _, _, _ = cam.Project(dynamo.V(0, 10, 0), 80, 40)
	assert.Equal(t, 0, y)
}

func TestCamera_UnprojectInvertsProject(t *testing.T) {
	cam := NewCamera(10)
	cam.Distance = 0
	cam.RotateY(0.4)
	cam.RotateX(-0.3)

	p := cam.Unproject(60, 30, 100, 80)
	x, y, _, _, ok := cam.Project(p, 100, 80)
	require.True(t, ok)
	assert.InDelta(t, 60, x, 1)
	assert.InDelta(t, 30, y, 1)
}

func TestCamera_BehindEyeIsHidden(t *testing.T) {
	cam := NewCamera(10)
	_, _, _, _, ok := cam.Project(dynamo.V(0, 0, 100), 80, 40)
	assert.False(t, ok)
}

func TestDraw_AtomsAndBonds(t *testing.T) {
	s := physics.New()
	s.AddAtom(chem.O, dynamo.V(0, 0, 0))
	h, _ := s.AddAtom(chem.H, dynamo.V(1.0, 0, 0))
	p := physics.DefaultParams()
	require.Equal(t, 1, s.FormBonds(&p))

	c := NewCanvas(40, 20)
	cam := NewCamera(5)
	cam.Distance = 0
	target := dynamo.V(-3, 3, 0)
	Draw(c, cam, Scene{Snapshot: s.Snapshot(), Grabbed: h, Target: &target, Box: 4})

	tags := map[Tag]bool{}
	for _, row := range c.Tags {
		for _, tg := range row {
			tags[tg] = true
		}
	}
	assert.True(t, tags[ElementTag(chem.O)])
	assert.True(t, tags[TagGrab], "held atom is highlighted")
	assert.True(t, tags[TagTarget])
	assert.True(t, tags[TagBox])

	// The bond stroke lights the midpoint between the two atoms.
	mx, my, _, _, _ := cam.Project(dynamo.V(0.5, 0, 0), c.DotsWide(), c.DotsHigh())
	assert.True(t, c.Lit(mx, my))
}

func TestNearest(t *testing.T) {
	snap := physics.Snapshot{Atoms: []physics.SnapshotAtom{
		{ID: 1, Element: chem.C, Pos: [3]float64{-4, 0, 0}},
		{ID: 2, Element: chem.C, Pos: [3]float64{0.5, 0.5, 0}},
	}}
	cam := NewCamera(5)
	id, ok := Nearest(cam, snap, 40, 40, 80, 80)
	require.True(t, ok)
	assert.Equal(t, physics.AtomID(2), id)

	_, ok = Nearest(cam, physics.Snapshot{}, 0, 0, 80, 80)
	assert.False(t, ok)
}

func TestThemes(t *testing.T) {
	assert.Equal(t, "cpk", GetTheme("nope").Name)
	assert.Equal(t, "retro", NextTheme("cpk").Name)
	assert.Equal(t, "cpk", NextTheme("ocean").Name)
	assert.Equal(t, ThemeCPK.Elements[chem.O], ThemeCPK.Color(ElementTag(chem.O)))
	assert.Equal(t, ThemeCPK.Bond, ThemeCPK.Color(TagNone))
	assert.Len(t, ThemeNames(), len(Themes))

	out := ThemeCPK.Paint()(ElementTag(chem.H), "x")
	assert.Contains(t, out, "x")
}

func TestSparkline(t *testing.T) {
	assert.Empty(t, ThemeCPK.Sparkline(nil, 0))
	out := ThemeOcean.Sparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 4)
	bars := 0
	for _, r := range out {
		if strings.ContainsRune(string(sparkChars), r) {
			bars++
		}
	}
	assert.Equal(t, 4, bars, "only the last four values are shown")
	assert.Contains(t, out, "█")
	assert.True(t, strings.Contains(ThemeRetroGreen.Separator(20), "◆"))
}
