package viewer

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/lgh0504/pscbfm/config"
)

// Sim is the slice of the engine the viewer drives.
type Sim interface {
	Box() (int32, int32, int32)
	NumMonomers() int
	Species(i int) int
	Step() int
	RunSweeps(n int) error
	Position(i int) (x, y, z int32)
}

// speciesPalette colors monomers by species id, cycling for large palettes.
var speciesPalette = []rl.Color{
	{R: 230, G: 90, B: 70, A: 255},
	{R: 70, G: 130, B: 220, A: 255},
	{R: 90, G: 190, B: 100, A: 255},
	{R: 240, G: 190, B: 60, A: 255},
	{R: 170, G: 100, B: 220, A: 255},
	{R: 80, G: 200, B: 200, A: 255},
	{R: 230, G: 130, B: 180, A: 255},
	{R: 150, G: 150, B: 150, A: 255},
}

const panelWidth = 220

// Run opens a window and steps the simulation between frames until the
// window is closed. Right mouse drag orbits, the wheel zooms, space pauses.
func Run(cfg config.ViewerConfig, sim Sim) error {
	rl.InitWindow(int32(cfg.Width), int32(cfg.Height), "pscbfm")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.TargetFPS))

	bx, by, bz := sim.Box()
	orbit := NewOrbit(float32(bx), float32(by), float32(bz))

	paused := false
	sweepsPerFrame := float32(cfg.SweepsPerFrame)

	for !rl.WindowShouldClose() {
		// Input
		if rl.IsMouseButtonDown(rl.MouseRightButton) {
			delta := rl.GetMouseDelta()
			orbit.Rotate(-delta.X*0.01, delta.Y*0.01)
		}
		orbit.Zoom(rl.GetMouseWheelMove() * float32(bx) * 0.1)
		if rl.IsKeyPressed(rl.KeySpace) {
			paused = !paused
		}

		// Advance the simulation
		if !paused {
			if err := sim.RunSweeps(int(sweepsPerFrame)); err != nil {
				return err
			}
		}

		// Render
		cx, cy, cz := orbit.Position()
		cam := rl.Camera3D{
			Position:   rl.Vector3{X: cx, Y: cy, Z: cz},
			Target:     rl.Vector3{X: orbit.TargetX, Y: orbit.TargetY, Z: orbit.TargetZ},
			Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
			Fovy:       45,
			Projection: rl.CameraPerspective,
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Color{R: 18, G: 18, B: 24, A: 255})

		rl.BeginMode3D(cam)
		rl.DrawCubeWires(
			rl.Vector3{X: float32(bx) / 2, Y: float32(by) / 2, Z: float32(bz) / 2},
			float32(bx), float32(by), float32(bz), rl.Gray)

		maskX, maskY, maskZ := bx-1, by-1, bz-1
		for i := 0; i < sim.NumMonomers(); i++ {
			x, y, z := sim.Position(i)
			// Fold into the box and center on the 2³ cube.
			px := float32(x&maskX) + 1
			py := float32(y&maskY) + 1
			pz := float32(z&maskZ) + 1
			color := speciesPalette[sim.Species(i)%len(speciesPalette)]
			rl.DrawCube(rl.Vector3{X: px, Y: py, Z: pz}, 1.8, 1.8, 1.8, color)
		}
		rl.EndMode3D()

		// Control panel
		panelX := float32(cfg.Width - panelWidth - 10)
		panelY := float32(10)

		rl.DrawText(fmt.Sprintf("step %d", sim.Step()), int32(panelX), int32(panelY), 20, rl.RayWhite)
		panelY += 28
		rl.DrawText(fmt.Sprintf("%d monomers  %d fps", sim.NumMonomers(), rl.GetFPS()),
			int32(panelX), int32(panelY), 14, rl.LightGray)
		panelY += 26

		paused = gui.CheckBox(
			rl.Rectangle{X: panelX, Y: panelY, Width: 16, Height: 16},
			"pause (space)", paused)
		panelY += 28

		rl.DrawText("sweeps per frame", int32(panelX), int32(panelY), 14, rl.LightGray)
		panelY += 18
		sweepsPerFrame = gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: panelWidth - 60, Height: 18},
			"1", "50",
			sweepsPerFrame, 1, 50)
		rl.DrawText(fmt.Sprintf("%d", int(sweepsPerFrame)),
			int32(panelX+panelWidth-50), int32(panelY), 16, rl.RayWhite)

		rl.EndDrawing()
	}
	return nil
}
